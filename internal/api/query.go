package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/auth"
	"github.com/ledgerlens/ledgerlens/internal/bank"
	"github.com/ledgerlens/ledgerlens/internal/cache"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
	"github.com/ledgerlens/ledgerlens/internal/observability"
)

type queryRequest struct {
	Question string `json:"question"`
}

type rawSQLRequest struct {
	SQL      string `json:"sql"`
	RowLimit int    `json:"row_limit"`
}

type queryResponse struct {
	Question  string         `json:"question,omitempty"`
	SQL       string         `json:"sql"`
	Provider  string         `json:"provider,omitempty"`
	Model     string         `json:"model,omitempty"`
	Columns   []string       `json:"columns"`
	Rows      [][]any        `json:"rows"`
	RowCount  int            `json:"row_count"`
	Truncated bool           `json:"truncated"`
	Cached    bool           `json:"cached"`
	Stats     map[string]any `json:"stats"`
}

func handleQuery(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil || deps.Translator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if err := validateQuestion(request.Question, cfg.AI.MaxQuestionLen); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_INVALID", err.Error(), false, nil)
		return
	}

	if deps.QueryCache != nil {
		if entry, ok := deps.QueryCache.Get(request.Question); ok {
			writeJSON(w, http.StatusOK, buildQueryResponse(request.Question, entry, cfg.Reports.ResponseRows, true))
			return
		}
	}

	translation, err := translateQuestion(r.Context(), cfg, deps, request.Question)
	if err != nil {
		observability.IncrementTranslationFailure()
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "failed to translate question", true, map[string]any{"details": err.Error()})
		return
	}
	observability.ObserveTranslation(translation.Provider)

	if !isAllowedSQL(translation.SQL) {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", "generated SQL is not a read-only query", false, map[string]any{"sql": translation.SQL})
		return
	}

	// Ask for one extra row so truncation is detectable.
	result, err := deps.Repo.ExecuteQuery(r.Context(), bank.QueryRequest{
		SQL:      translation.SQL,
		RowLimit: cfg.Reports.ResponseRows + 1,
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error(), "sql": translation.SQL})
		return
	}
	observability.ObserveQuery(len(result.Rows), result.Duration)

	entry := cache.Entry{
		SQL:      translation.SQL,
		Provider: translation.Provider,
		Model:    translation.Model,
		Result:   result,
	}
	if deps.QueryCache != nil {
		deps.QueryCache.Set(request.Question, entry)
	}

	writeJSON(w, http.StatusOK, buildQueryResponse(request.Question, entry, cfg.Reports.ResponseRows, false))
}

func handleTranslateQuery(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Translator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", "query translation is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid translation request body", false, map[string]any{"details": err.Error()})
		return
	}
	if err := validateQuestion(request.Question, cfg.AI.MaxQuestionLen); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_INVALID", err.Error(), false, nil)
		return
	}

	translation, err := translateQuestion(r.Context(), cfg, deps, request.Question)
	if err != nil {
		observability.IncrementTranslationFailure()
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "failed to translate question", true, map[string]any{"details": err.Error()})
		return
	}
	observability.ObserveTranslation(translation.Provider)

	writeJSON(w, http.StatusOK, map[string]any{
		"sql":      translation.SQL,
		"provider": translation.Provider,
		"model":    translation.Model,
	})
}

func handleRawSQL(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "bank store is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request rawSQLRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid sql request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}
	if !isAllowedSQL(request.SQL) {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", "only read-only SELECT/WITH queries are allowed", false, nil)
		return
	}

	rowLimit := request.RowLimit
	if rowLimit <= 0 || rowLimit > cfg.Reports.ResponseRows {
		rowLimit = cfg.Reports.ResponseRows
	}

	result, err := deps.Repo.ExecuteQuery(r.Context(), bank.QueryRequest{SQL: request.SQL, RowLimit: rowLimit + 1})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error()})
		return
	}
	observability.ObserveQuery(len(result.Rows), result.Duration)

	entry := cache.Entry{SQL: request.SQL, Result: result}
	writeJSON(w, http.StatusOK, buildQueryResponse("", entry, rowLimit, false))
}

func buildQueryResponse(question string, entry cache.Entry, responseRows int, cached bool) queryResponse {
	rows := entry.Result.Rows
	truncated := false
	if responseRows > 0 && len(rows) > responseRows {
		rows = rows[:responseRows]
		truncated = true
	}
	return queryResponse{
		Question:  question,
		SQL:       entry.SQL,
		Provider:  entry.Provider,
		Model:     entry.Model,
		Columns:   entry.Result.Columns,
		Rows:      rows,
		RowCount:  len(rows),
		Truncated: truncated,
		Cached:    cached,
		Stats: map[string]any{
			"duration_ms": entry.Result.Duration.Milliseconds(),
		},
	}
}

func translateQuestion(ctx context.Context, cfg config.Config, deps Dependencies, question string) (nl2sql.Result, error) {
	tables, err := buildTableContexts(ctx, deps, schemaSampleRows(cfg))
	if err != nil {
		return nl2sql.Result{}, err
	}

	timeout := cfg.AI.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	translateCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return deps.Translator.Translate(translateCtx, nl2sql.Request{
		Question: question,
		Tables:   tables,
	})
}

func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}
