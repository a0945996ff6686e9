package api

import "testing"

func TestIsAllowedSQL(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT * FROM clients", true},
		{"  select count(*) from accounts  ", true},
		{"WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"SELECT created_at FROM clients", true},
		{"DROP TABLE clients", false},
		{"DELETE FROM clients", false},
		{"SELECT 1; DROP TABLE clients", false},
		{"INSERT INTO clients VALUES (1)", false},
		{"UPDATE accounts SET balance = 0", false},
		{"TRUNCATE transactions", false},
		{"", false},
		{"EXPLAIN SELECT 1", false},
	}
	for _, tt := range tests {
		if got := isAllowedSQL(tt.sql); got != tt.want {
			t.Fatalf("isAllowedSQL(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}

func TestValidateQuestion(t *testing.T) {
	if err := validateQuestion("how many clients?", 100); err != nil {
		t.Fatalf("validateQuestion() error = %v", err)
	}
	if err := validateQuestion("   ", 100); err == nil {
		t.Fatal("expected error for blank question")
	}
	if err := validateQuestion("too long", 3); err == nil {
		t.Fatal("expected error for oversized question")
	}
	// 15 runes but 29 bytes; the limit counts characters.
	if err := validateQuestion("Тошкент шаҳрида", 15); err != nil {
		t.Fatalf("validateQuestion() error = %v for multibyte question", err)
	}
}
