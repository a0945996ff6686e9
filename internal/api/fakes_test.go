package api

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/bank"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
	"github.com/ledgerlens/ledgerlens/internal/report"
	"github.com/ledgerlens/ledgerlens/internal/storage"
)

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

type fakeRepo struct {
	healthErr error
	stats     bank.Stats
	statsErr  error
	result    bank.QueryResult
	queryErr  error
	requests  []bank.QueryRequest
	tables    []string
	samples   map[string]bank.TableSample
}

func (f *fakeRepo) HealthCheck(context.Context) error { return f.healthErr }

func (f *fakeRepo) Stats(context.Context) (bank.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeRepo) ExecuteQuery(_ context.Context, req bank.QueryRequest) (bank.QueryResult, error) {
	f.requests = append(f.requests, req)
	if f.queryErr != nil {
		return bank.QueryResult{}, f.queryErr
	}
	result := f.result
	if req.RowLimit > 0 && len(result.Rows) > req.RowLimit {
		result.Rows = result.Rows[:req.RowLimit]
	}
	return result, nil
}

func (f *fakeRepo) ListTables(context.Context) ([]string, error) {
	if f.tables == nil {
		return []string{"accounts", "clients", "transactions"}, nil
	}
	return f.tables, nil
}

func (f *fakeRepo) SampleTable(_ context.Context, tableName string, _ int) (bank.TableSample, error) {
	if sample, ok := f.samples[tableName]; ok {
		return sample, nil
	}
	return bank.TableSample{TableName: tableName, Columns: []string{"id"}}, nil
}

func (f *fakeRepo) CountClients(context.Context) (int64, error) { return 0, nil }

func (f *fakeRepo) InsertClients(context.Context, []bank.Client) error { return nil }

func (f *fakeRepo) InsertAccounts(context.Context, []bank.Account) error { return nil }

func (f *fakeRepo) InsertTransactions(context.Context, []bank.Transaction) error { return nil }

type fakeTranslator struct {
	result   nl2sql.Result
	err      error
	requests []nl2sql.Request
}

func (f *fakeTranslator) Translate(_ context.Context, req nl2sql.Request) (nl2sql.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nl2sql.Result{}, f.err
	}
	return f.result, nil
}

type fakeReports struct {
	generated   []report.GenerateInput
	generateErr error
	item        report.Report
	listed      []report.Report
	content     []byte
	openErr     error
	summary     report.CleanupSummary
	cleanupErr  error
}

func (f *fakeReports) Generate(_ context.Context, in report.GenerateInput) (report.Report, error) {
	f.generated = append(f.generated, in)
	if f.generateErr != nil {
		return report.Report{}, f.generateErr
	}
	return f.item, nil
}

func (f *fakeReports) List(context.Context) ([]report.Report, error) {
	return f.listed, nil
}

func (f *fakeReports) Open(_ context.Context, filename string) (io.ReadCloser, report.Report, error) {
	if f.openErr != nil {
		return nil, report.Report{}, f.openErr
	}
	for _, item := range f.listed {
		if item.Filename == filename {
			return io.NopCloser(bytes.NewReader(f.content)), item, nil
		}
	}
	return nil, report.Report{}, storage.ErrObjectNotFound
}

func (f *fakeReports) RunCleanupOnce(context.Context) (report.CleanupSummary, error) {
	return f.summary, f.cleanupErr
}

func sampleStats() bank.Stats {
	return bank.Stats{Clients: 50000, Accounts: 99874, Transactions: 2987341, TotalBalance: 12345678.90}
}

func sampleQueryResult(rows int) bank.QueryResult {
	result := bank.QueryResult{
		Columns:  []string{"region", "clients"},
		Duration: 15 * time.Millisecond,
	}
	for i := 0; i < rows; i++ {
		result.Rows = append(result.Rows, []any{"Toshkent", int64(i)})
	}
	return result
}
