package nl2sql

import (
	"context"
	"strings"
)

type TableContext struct {
	TableName  string   `json:"table_name"`
	Columns    []string `json:"columns"`
	SampleRows [][]any  `json:"sample_rows,omitempty"`
}

type Request struct {
	Question string         `json:"question"`
	Tables   []TableContext `json:"tables"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Translator turns a natural language question into a single SQL query
// against the bank schema.
type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
