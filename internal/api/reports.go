package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ledgerlens/ledgerlens/internal/auth"
	"github.com/ledgerlens/ledgerlens/internal/bank"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/report"
	"github.com/ledgerlens/ledgerlens/internal/storage"
)

type generateReportRequest struct {
	Question  string `json:"question"`
	Format    string `json:"format"`
	ChartType string `json:"chart_type"`
}

func handleGenerateReport(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil || deps.Translator == nil || deps.Reports == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "REPORTS_NOT_CONFIGURED", "report dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleReportWriter); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request generateReportRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid report request body", false, map[string]any{"details": err.Error()})
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

	if !isAllowedSQL(translation.SQL) {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", "generated SQL is not a read-only query", false, map[string]any{"sql": translation.SQL})
		return
	}

	result, err := deps.Repo.ExecuteQuery(r.Context(), bank.QueryRequest{
		SQL:      translation.SQL,
		RowLimit: cfg.Reports.MaxRows,
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error(), "sql": translation.SQL})
		return
	}
	observability.ObserveQuery(len(result.Rows), result.Duration)
	if len(result.Rows) == 0 {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "EMPTY_RESULT", "question produced no rows to report", false, map[string]any{"sql": translation.SQL})
		return
	}

	item, err := deps.Reports.Generate(r.Context(), report.GenerateInput{
		Question:  request.Question,
		Result:    result,
		Format:    request.Format,
		ChartType: request.ChartType,
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "REPORT_GENERATION_FAILED", "failed to generate report", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"filename":     item.Filename,
		"size_bytes":   item.Size,
		"generated_at": item.GeneratedAt,
		"download_url": "/v1/reports/" + item.Filename,
		"sql":          translation.SQL,
		"provider":     translation.Provider,
		"row_count":    len(result.Rows),
	})
}

func handleListReports(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Reports == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "REPORTS_NOT_CONFIGURED", "report dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	reports, err := deps.Reports.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "REPORT_LIST_FAILED", "failed to list reports", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func handleDownloadReport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Reports == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "REPORTS_NOT_CONFIGURED", "report dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	filename := r.PathValue("filename")
	reader, item, err := deps.Reports.Open(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "REPORT_NOT_FOUND", "report was not found", false, map[string]any{"filename": filename})
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "REPORT_DOWNLOAD_FAILED", err.Error(), false, nil)
		return
	}
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+item.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func handleReportCleanup(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Reports == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "REPORTS_NOT_CONFIGURED", "report dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAdmin); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	summary, err := deps.Reports.RunCleanupOnce(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "REPORT_CLEANUP_FAILED", "report cleanup failed", true, map[string]any{"details": err.Error(), "summary": summary})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
