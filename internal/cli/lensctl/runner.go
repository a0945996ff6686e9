package lensctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("lensctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "LedgerLens API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")
	question := fs.String("question", "", "natural language question (query, translate, report)")
	format := fs.String("format", "", "report format: xlsx or parquet (report)")
	chart := fs.String("chart", "", "chart type: bar, pie or line (report)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	method := ""
	path := ""
	var payload any
	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "ready":
		method, path = http.MethodGet, "/v1/ready"
	case "stats":
		method, path = http.MethodGet, "/v1/stats"
	case "schema":
		method, path = http.MethodGet, "/v1/schema"
	case "examples":
		method, path = http.MethodGet, "/v1/examples"
	case "query":
		if strings.TrimSpace(*question) == "" {
			_, _ = fmt.Fprintln(stderr, "query requires -question")
			return 2
		}
		method, path = http.MethodPost, "/v1/query"
		payload = map[string]string{"question": *question}
	case "translate":
		if strings.TrimSpace(*question) == "" {
			_, _ = fmt.Fprintln(stderr, "translate requires -question")
			return 2
		}
		method, path = http.MethodPost, "/v1/query/translate"
		payload = map[string]string{"question": *question}
	case "report":
		if strings.TrimSpace(*question) == "" {
			_, _ = fmt.Fprintln(stderr, "report requires -question")
			return 2
		}
		method, path = http.MethodPost, "/v1/reports"
		body := map[string]string{"question": *question}
		if strings.TrimSpace(*format) != "" {
			body["format"] = strings.TrimSpace(*format)
		}
		if strings.TrimSpace(*chart) != "" {
			body["chart_type"] = strings.TrimSpace(*chart)
		}
		payload = body
	case "reports":
		method, path = http.MethodGet, "/v1/reports"
	case "cleanup-run":
		method, path = http.MethodPost, "/v1/reports/cleanup"
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, *apiKey, payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func doRequest(ctx context.Context, client *http.Client, method, url, apiKey string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: lensctl [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health        GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready         GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  stats         GET /v1/stats")
	_, _ = fmt.Fprintln(w, "  schema        GET /v1/schema")
	_, _ = fmt.Fprintln(w, "  examples      GET /v1/examples")
	_, _ = fmt.Fprintln(w, "  query         POST /v1/query (-question)")
	_, _ = fmt.Fprintln(w, "  translate     POST /v1/query/translate (-question)")
	_, _ = fmt.Fprintln(w, "  report        POST /v1/reports (-question, -format, -chart)")
	_, _ = fmt.Fprintln(w, "  reports       GET /v1/reports")
	_, _ = fmt.Fprintln(w, "  cleanup-run   POST /v1/reports/cleanup")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
