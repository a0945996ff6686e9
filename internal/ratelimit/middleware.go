package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ledgerlens/ledgerlens/internal/observability"
)

func Middleware(logger *slog.Logger, limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiter.Allow(key) {
				observability.IncrementRateLimited()
				if logger != nil {
					logger.WarnContext(r.Context(), "request rate limited",
						slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
						slog.String("client", key),
						slog.String("path", r.URL.Path),
					)
				}
				writeTooManyRequests(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooManyRequests(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error_code": "RATE_LIMITED",
		"message":    "too many requests",
		"retryable":  true,
		"trace_id":   observability.TraceIDFromContext(r.Context()),
	})
}
