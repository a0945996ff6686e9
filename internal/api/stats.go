package api

import (
	"net/http"

	"github.com/ledgerlens/ledgerlens/internal/auth"
)

func handleStats(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "STATS_NOT_CONFIGURED", "bank store is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	stats, err := deps.Repo.Stats(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "STATS_FAILED", "failed to load store statistics", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
