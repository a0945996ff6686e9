package nl2sql

import (
	"context"
	"strings"
)

// FallbackTranslator maps common questions to canned queries. It keeps
// the service usable when no model endpoint is reachable and serves as
// the last resort behind an unreliable provider.
type FallbackTranslator struct{}

func NewFallbackTranslator() *FallbackTranslator {
	return &FallbackTranslator{}
}

func (t *FallbackTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	question := strings.ToLower(req.Question)

	var sql string
	switch {
	case strings.Contains(question, "toshkent") && strings.Contains(question, "mijoz"):
		sql = "SELECT COUNT(*) AS clients FROM clients WHERE region = 'Toshkent';"
	case strings.Contains(question, "viloyat") || strings.Contains(question, "region"):
		sql = "SELECT region, COUNT(*) AS clients FROM clients GROUP BY region ORDER BY clients DESC;"
	case strings.Contains(question, "balans") || strings.Contains(question, "balance"):
		sql = "SELECT account_number, balance FROM accounts ORDER BY balance DESC LIMIT 10;"
	default:
		sql = "SELECT COUNT(*) AS total FROM clients;"
	}

	return Result{SQL: sql, Provider: "fallback"}, nil
}

// WithFallback wraps a translator so that failures fall through to the
// canned rules instead of surfacing an error to the caller.
func WithFallback(primary Translator) Translator {
	return &fallbackChain{primary: primary, fallback: NewFallbackTranslator()}
}

type fallbackChain struct {
	primary  Translator
	fallback *FallbackTranslator
}

func (c *fallbackChain) Translate(ctx context.Context, req Request) (Result, error) {
	result, err := c.primary.Translate(ctx, req)
	if err == nil {
		return result, nil
	}
	return c.fallback.Translate(ctx, req)
}
