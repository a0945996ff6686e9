package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ledgerlens/ledgerlens/internal/auth"
	"github.com/ledgerlens/ledgerlens/internal/bank"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
)

func handleSchema(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "bank store is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	tables, err := buildTableContexts(r.Context(), deps, schemaSampleRows(cfg))
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FETCH_FAILED", "failed to load schema context", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tables":  tables,
		"regions": bank.Regions,
	})
}

func buildTableContexts(ctx context.Context, deps Dependencies, sampleRows int) ([]nl2sql.TableContext, error) {
	tables, err := deps.Repo.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	contexts := make([]nl2sql.TableContext, 0, len(tables))
	for _, tableName := range tables {
		item := nl2sql.TableContext{TableName: tableName}
		sample, err := deps.Repo.SampleTable(ctx, tableName, sampleRows)
		if err == nil {
			item.Columns = sample.Columns
			item.SampleRows = sample.SampleRows
		}
		contexts = append(contexts, item)
	}
	return contexts, nil
}

func schemaSampleRows(cfg config.Config) int {
	if cfg.AI.SchemaSamples > 0 {
		return cfg.AI.SchemaSamples
	}
	return 5
}
