package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/bank"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping bank db: %w", err)
	}
	return nil
}

func (r *Repository) Stats(ctx context.Context) (bank.Stats, error) {
	query := `
SELECT
	(SELECT COUNT(*) FROM clients),
	(SELECT COUNT(*) FROM accounts),
	(SELECT COUNT(*) FROM transactions),
	(SELECT COALESCE(SUM(balance), 0) FROM accounts)`

	var stats bank.Stats
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Clients,
		&stats.Accounts,
		&stats.Transactions,
		&stats.TotalBalance,
	); err != nil {
		return bank.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}

func (r *Repository) ExecuteQuery(ctx context.Context, req bank.QueryRequest) (bank.QueryResult, error) {
	sqlText := stripTrailingSemicolons(req.SQL)
	if sqlText == "" {
		return bank.QueryResult{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, sqlText)
	if err != nil {
		return bank.QueryResult{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return bank.QueryResult{}, fmt.Errorf("read query columns: %w", err)
	}

	result := bank.QueryResult{Columns: columns, Rows: make([][]any, 0, 16)}
	for rows.Next() {
		if req.RowLimit > 0 && len(result.Rows) >= req.RowLimit {
			break
		}
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return bank.QueryResult{}, fmt.Errorf("scan query row: %w", err)
		}
		result.Rows = append(result.Rows, normalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		return bank.QueryResult{}, fmt.Errorf("iterate query rows: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Repository) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_name IN ('clients', 'accounts', 'transactions')
ORDER BY table_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]string, 0, 3)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}
	return tables, nil
}

func (r *Repository) SampleTable(ctx context.Context, tableName string, sampleRows int) (bank.TableSample, error) {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	result, err := r.ExecuteQuery(ctx, bank.QueryRequest{
		SQL:      "SELECT * FROM " + quoteIdent(tableName) + " LIMIT " + strconv.Itoa(sampleRows),
		RowLimit: sampleRows,
	})
	if err != nil {
		return bank.TableSample{}, fmt.Errorf("sample table %q: %w", tableName, err)
	}
	return bank.TableSample{
		TableName:  tableName,
		Columns:    result.Columns,
		SampleRows: result.Rows,
	}, nil
}

func (r *Repository) CountClients(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return count, nil
}

func (r *Repository) InsertClients(ctx context.Context, clients []bank.Client) error {
	if len(clients) == 0 {
		return nil
	}
	query, args := buildInsert(
		"INSERT INTO clients (id, name, birth_date, region, phone, email) VALUES ",
		len(clients), 6,
		func(i int, args []any) []any {
			c := clients[i]
			return append(args, c.ID, c.Name, c.BirthDate, c.Region, c.Phone, c.Email)
		},
	)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert clients: %w", err)
	}
	return nil
}

func (r *Repository) InsertAccounts(ctx context.Context, accounts []bank.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	query, args := buildInsert(
		"INSERT INTO accounts (id, client_id, account_number, balance, account_type, open_date, status) VALUES ",
		len(accounts), 7,
		func(i int, args []any) []any {
			a := accounts[i]
			return append(args, a.ID, a.ClientID, a.AccountNumber, a.Balance, a.AccountType, a.OpenDate, a.Status)
		},
	)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert accounts: %w", err)
	}
	return nil
}

func (r *Repository) InsertTransactions(ctx context.Context, transactions []bank.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	query, args := buildInsert(
		"INSERT INTO transactions (id, account_id, amount, occurred_at, tx_type, description, reference_number) VALUES ",
		len(transactions), 7,
		func(i int, args []any) []any {
			t := transactions[i]
			return append(args, t.ID, t.AccountID, t.Amount, t.OccurredAt, t.TxType, t.Description, t.ReferenceNumber)
		},
	)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

func buildInsert(prefix string, rowCount, colCount int, appendArgs func(int, []any) []any) (string, []any) {
	var sb strings.Builder
	sb.WriteString(prefix)
	args := make([]any, 0, rowCount*colCount)
	for row := 0; row < rowCount; row++ {
		if row > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for col := 0; col < colCount; col++ {
			if col > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(row*colCount + col + 1))
		}
		sb.WriteByte(')')
		args = appendArgs(row, args)
	}
	return sb.String(), args
}

func normalizeRow(values []any) []any {
	row := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			row[i] = string(typed)
		default:
			row[i] = typed
		}
	}
	return row
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
