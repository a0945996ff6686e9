package api

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var dangerousSQLKeywords = []string{
	"drop", "delete", "update", "insert", "alter", "create", "truncate", "exec", "execute",
}

var sqlWordPattern = regexp.MustCompile(`[a-z_]+`)

// isAllowedSQL accepts read-only statements only. Generated SQL goes
// through here as well, so a misbehaving model cannot mutate the store.
func isAllowedSQL(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return false
	}
	if !strings.HasPrefix(normalized, "select") && !strings.HasPrefix(normalized, "with") {
		return false
	}
	for _, word := range sqlWordPattern.FindAllString(normalized, -1) {
		for _, keyword := range dangerousSQLKeywords {
			if word == keyword {
				return false
			}
		}
	}
	return true
}

func validateQuestion(question string, maxLen int) error {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return fmt.Errorf("question is required")
	}
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return fmt.Errorf("question exceeds %d characters", maxLen)
	}
	return nil
}
