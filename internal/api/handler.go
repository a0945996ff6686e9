package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerlens/ledgerlens/internal/bank"
	"github.com/ledgerlens/ledgerlens/internal/cache"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/report"
)

type ReadinessCheck func(ctx context.Context) error

type ReportRunner interface {
	Generate(ctx context.Context, in report.GenerateInput) (report.Report, error)
	List(ctx context.Context) ([]report.Report, error)
	Open(ctx context.Context, filename string) (io.ReadCloser, report.Report, error)
	RunCleanupOnce(ctx context.Context) (report.CleanupSummary, error)
}

type Dependencies struct {
	Logger              *slog.Logger
	Readiness           ReadinessCheck
	AuthMiddleware      func(http.Handler) http.Handler
	RateLimitMiddleware func(http.Handler) http.Handler
	DependencyTimeout   time.Duration
	Repo                bank.Repository
	Translator          nl2sql.Translator
	QueryCache          *cache.QueryCache
	Reports             ReportRunner
	UI                  http.Handler
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("GET /v1/stats", func(w http.ResponseWriter, r *http.Request) {
		handleStats(deps, w, r)
	})
	protected.HandleFunc("GET /v1/schema", func(w http.ResponseWriter, r *http.Request) {
		handleSchema(cfg, deps, w, r)
	})
	protected.HandleFunc("GET /v1/examples", func(w http.ResponseWriter, r *http.Request) {
		handleExamples(w, r)
	})
	protected.HandleFunc("POST /v1/query", func(w http.ResponseWriter, r *http.Request) {
		handleQuery(cfg, deps, w, r)
	})
	protected.HandleFunc("POST /v1/query/translate", func(w http.ResponseWriter, r *http.Request) {
		handleTranslateQuery(cfg, deps, w, r)
	})
	protected.HandleFunc("POST /v1/sql", func(w http.ResponseWriter, r *http.Request) {
		handleRawSQL(cfg, deps, w, r)
	})
	protected.HandleFunc("POST /v1/reports", func(w http.ResponseWriter, r *http.Request) {
		handleGenerateReport(cfg, deps, w, r)
	})
	protected.HandleFunc("GET /v1/reports", func(w http.ResponseWriter, r *http.Request) {
		handleListReports(deps, w, r)
	})
	protected.HandleFunc("GET /v1/reports/{filename}", func(w http.ResponseWriter, r *http.Request) {
		handleDownloadReport(deps, w, r)
	})
	protected.HandleFunc("POST /v1/reports/cleanup", func(w http.ResponseWriter, r *http.Request) {
		handleReportCleanup(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("GET /v1/stats", protectedHandler)
	mux.Handle("GET /v1/schema", protectedHandler)
	mux.Handle("GET /v1/examples", protectedHandler)
	mux.Handle("POST /v1/query", protectedHandler)
	mux.Handle("POST /v1/query/translate", protectedHandler)
	mux.Handle("POST /v1/sql", protectedHandler)
	mux.Handle("POST /v1/reports", protectedHandler)
	mux.Handle("GET /v1/reports", protectedHandler)
	mux.Handle("GET /v1/reports/{filename}", protectedHandler)
	mux.Handle("POST /v1/reports/cleanup", protectedHandler)
	if deps.UI != nil {
		mux.Handle("GET /{path...}", deps.UI)
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.RateLimitMiddleware != nil {
		middlewares = append(middlewares, deps.RateLimitMiddleware)
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckBankStore(repo bank.Repository) ReadinessCheck {
	return func(ctx context.Context) error {
		if repo == nil {
			return errors.New("bank store is not configured")
		}
		return repo.HealthCheck(ctx)
	}
}

func CheckTranslator(translator nl2sql.Translator) ReadinessCheck {
	return func(_ context.Context) error {
		if translator == nil {
			return errors.New("translator is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
