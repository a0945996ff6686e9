package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/cache"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
)

func TestQueryEndpointTranslatesAndExecutes(t *testing.T) {
	cfg, err := config.Load("ledgerlens-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	repo := &fakeRepo{result: sampleQueryResult(2)}
	translator := &fakeTranslator{result: nl2sql.Result{
		SQL:      "SELECT region, COUNT(*) AS clients FROM clients GROUP BY region",
		Provider: "ollama",
		Model:    "llama3.2",
	}}
	h := NewHandler(cfg, Dependencies{Repo: repo, Translator: translator})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"question":"Clients per region?"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body queryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body.SQL != translator.result.SQL {
		t.Fatalf("sql = %q", body.SQL)
	}
	if body.Provider != "ollama" || body.RowCount != 2 || body.Cached {
		t.Fatalf("body = %+v", body)
	}
	if len(translator.requests) != 1 {
		t.Fatalf("translator requests = %d", len(translator.requests))
	}
	if len(translator.requests[0].Tables) != 3 {
		t.Fatalf("table contexts = %d", len(translator.requests[0].Tables))
	}
	if len(repo.requests) != 1 || repo.requests[0].RowLimit != cfg.Reports.ResponseRows+1 {
		t.Fatalf("repo requests = %+v", repo.requests)
	}
}

func TestQueryEndpointTruncatesLongResults(t *testing.T) {
	cfg, err := config.Load("ledgerlens-api", mapLookup(map[string]string{
		"LEDGERLENS_REPORTS_RESPONSE_ROWS": "3",
	}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	repo := &fakeRepo{result: sampleQueryResult(10)}
	translator := &fakeTranslator{result: nl2sql.Result{SQL: "SELECT id FROM accounts", Provider: "fallback"}}
	h := NewHandler(cfg, Dependencies{Repo: repo, Translator: translator})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"question":"all accounts"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body queryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body.RowCount != 3 || !body.Truncated {
		t.Fatalf("row_count = %d, truncated = %v", body.RowCount, body.Truncated)
	}
}

func TestQueryEndpointServesCachedAnswer(t *testing.T) {
	cfg, err := config.Load("ledgerlens-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	repo := &fakeRepo{result: sampleQueryResult(1)}
	translator := &fakeTranslator{result: nl2sql.Result{SQL: "SELECT 1", Provider: "ollama"}}
	queryCache := cache.New(time.Minute, time.Minute)
	h := NewHandler(cfg, Dependencies{Repo: repo, Translator: translator, QueryCache: queryCache})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"question":"same question"}`))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var body queryResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("json decode failed: %v", err)
		}
		if body.Cached != (i == 1) {
			t.Fatalf("request %d cached = %v", i, body.Cached)
		}
	}
	if len(translator.requests) != 1 {
		t.Fatalf("translator called %d times, want 1", len(translator.requests))
	}
}

func TestQueryEndpointRejectsMutatingSQL(t *testing.T) {
	cfg, err := config.Load("ledgerlens-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	translator := &fakeTranslator{result: nl2sql.Result{SQL: "DROP TABLE clients", Provider: "ollama"}}
	h := NewHandler(cfg, Dependencies{Repo: &fakeRepo{}, Translator: translator})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"question":"drop everything"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "SQL_NOT_ALLOWED") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestQueryEndpointRejectsOversizedQuestion(t *testing.T) {
	cfg, err := config.Load("ledgerlens-api", mapLookup(map[string]string{
		"LEDGERLENS_AI_MAX_QUESTION_LEN": "10",
	}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{Repo: &fakeRepo{}, Translator: &fakeTranslator{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"question":"this question is far too long"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "QUESTION_INVALID") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestQueryEndpointReportsTranslationFailure(t *testing.T) {
	cfg, err := config.Load("ledgerlens-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	translator := &fakeTranslator{err: errors.New("model unreachable")}
	h := NewHandler(cfg, Dependencies{Repo: &fakeRepo{}, Translator: translator})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"question":"anything"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}

func TestTranslateEndpointReturnsSQLOnly(t *testing.T) {
	cfg, err := config.Load("ledgerlens-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	translator := &fakeTranslator{result: nl2sql.Result{SQL: "SELECT 1", Provider: "fallback"}}
	h := NewHandler(cfg, Dependencies{Repo: &fakeRepo{}, Translator: translator})

	req := httptest.NewRequest(http.MethodPost, "/v1/query/translate", strings.NewReader(`{"question":"how many"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body["sql"] != "SELECT 1" || body["provider"] != "fallback" {
		t.Fatalf("body = %v", body)
	}
}

func TestRawSQLEndpointGuardsStatements(t *testing.T) {
	cfg, err := config.Load("ledgerlens-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	repo := &fakeRepo{result: sampleQueryResult(1)}
	h := NewHandler(cfg, Dependencies{Repo: repo})

	okReq := httptest.NewRequest(http.MethodPost, "/v1/sql", strings.NewReader(`{"sql":"SELECT COUNT(*) FROM clients"}`))
	okResp := httptest.NewRecorder()
	h.ServeHTTP(okResp, okReq)
	if okResp.Code != http.StatusOK {
		t.Fatalf("select status = %d, body = %s", okResp.Code, okResp.Body.String())
	}

	badReq := httptest.NewRequest(http.MethodPost, "/v1/sql", strings.NewReader(`{"sql":"DELETE FROM clients"}`))
	badResp := httptest.NewRecorder()
	h.ServeHTTP(badResp, badReq)
	if badResp.Code != http.StatusBadRequest {
		t.Fatalf("delete status = %d, want 400", badResp.Code)
	}
}
