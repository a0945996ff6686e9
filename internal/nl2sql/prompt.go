package nl2sql

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ledgerlens/ledgerlens/internal/bank"
)

const systemPrompt = "You convert natural language banking questions into a single SQL query. " +
	"The database uses PostgreSQL-like SQL syntax. " +
	"Return ONLY SQL. No markdown, no explanation."

func buildUserPrompt(req Request) (string, error) {
	tablesJSON, err := json.Marshal(req.Tables)
	if err != nil {
		return "", fmt.Errorf("marshal table context: %w", err)
	}
	return fmt.Sprintf(
		"Schema and sample context (JSON):\n%s\n\nRegions: %s\n\nUser question:\n%s\n\nRules:\n- Use only listed tables.\n- Prefer explicit columns.\n- Add LIMIT 200 unless the question asks otherwise.\n- Output a single SQL query only.",
		string(tablesJSON),
		strings.Join(bank.Regions, ", "),
		strings.TrimSpace(req.Question),
	), nil
}
