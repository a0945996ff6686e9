package sqlstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/ledgerlens/ledgerlens/internal/bank"
)

func TestStats(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT
	(SELECT COUNT(*) FROM clients),
	(SELECT COUNT(*) FROM accounts),
	(SELECT COUNT(*) FROM transactions),
	(SELECT COALESCE(SUM(balance), 0) FROM accounts)`)).
		WillReturnRows(sqlmock.NewRows([]string{"clients", "accounts", "transactions", "total_balance"}).
			AddRow(int64(50000), int64(99874), int64(2987341), 12345678.90))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Clients != 50000 {
		t.Fatalf("Clients = %d", stats.Clients)
	}
	if stats.Accounts != 99874 {
		t.Fatalf("Accounts = %d", stats.Accounts)
	}
	if stats.TotalBalance != 12345678.90 {
		t.Fatalf("TotalBalance = %v", stats.TotalBalance)
	}
	assertSQLMock(t, mock)
}

func TestExecuteQueryScansRowsAndStripsSemicolon(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT region, COUNT(*) AS total FROM clients GROUP BY region`)).
		WillReturnRows(sqlmock.NewRows([]string{"region", "total"}).
			AddRow("Toshkent", int64(120)).
			AddRow("Samarqand", int64(80)))

	result, err := repo.ExecuteQuery(context.Background(), bank.QueryRequest{
		SQL: "SELECT region, COUNT(*) AS total FROM clients GROUP BY region;",
	})
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "region" {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Rows = %d", len(result.Rows))
	}
	if result.Rows[0][0] != "Toshkent" {
		t.Fatalf("Rows[0][0] = %v", result.Rows[0][0])
	}
	assertSQLMock(t, mock)
}

func TestExecuteQueryEnforcesRowLimit(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id"})
	for i := 1; i <= 10; i++ {
		rows.AddRow(int64(i))
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM accounts`)).WillReturnRows(rows)

	result, err := repo.ExecuteQuery(context.Background(), bank.QueryRequest{
		SQL:      "SELECT id FROM accounts",
		RowLimit: 3,
	})
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("Rows = %d, want 3", len(result.Rows))
	}
}

func TestExecuteQueryNormalizesBytes(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM clients LIMIT 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("Akbar Aliyev")))

	result, err := repo.ExecuteQuery(context.Background(), bank.QueryRequest{SQL: "SELECT name FROM clients LIMIT 1"})
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	if result.Rows[0][0] != "Akbar Aliyev" {
		t.Fatalf("Rows[0][0] = %#v, want string", result.Rows[0][0])
	}
	assertSQLMock(t, mock)
}

func TestExecuteQueryRequiresSQL(t *testing.T) {
	db, _ := newSQLMock(t)
	repo := NewRepository(db)

	if _, err := repo.ExecuteQuery(context.Background(), bank.QueryRequest{SQL: " ;; "}); err == nil {
		t.Fatal("expected error for empty sql")
	}
}

func TestListTables(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("accounts").
			AddRow("clients").
			AddRow("transactions"))

	tables, err := repo.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 3 || tables[0] != "accounts" {
		t.Fatalf("tables = %v", tables)
	}
	assertSQLMock(t, mock)
}

func TestSampleTableQuotesIdentifier(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "clients" LIMIT 2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Akbar Aliyev").
			AddRow(int64(2), "Barno Karimova"))

	sample, err := repo.SampleTable(context.Background(), "clients", 2)
	if err != nil {
		t.Fatalf("SampleTable() error = %v", err)
	}
	if sample.TableName != "clients" {
		t.Fatalf("TableName = %q", sample.TableName)
	}
	if len(sample.SampleRows) != 2 {
		t.Fatalf("SampleRows = %d", len(sample.SampleRows))
	}
	assertSQLMock(t, mock)
}

func TestInsertClientsBuildsBatch(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	birth := time.Date(1980, 5, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO clients (id, name, birth_date, region, phone, email) VALUES ($1, $2, $3, $4, $5, $6), ($7, $8, $9, $10, $11, $12)`)).
		WithArgs(
			int64(1), "Akbar Aliyev", birth, "Toshkent", "+998901234567", "user0@email.uz",
			int64(2), "Barno Karimova", birth, "Buxoro", "+998907654321", "user1@email.uz",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.InsertClients(context.Background(), []bank.Client{
		{ID: 1, Name: "Akbar Aliyev", BirthDate: birth, Region: "Toshkent", Phone: "+998901234567", Email: "user0@email.uz"},
		{ID: 2, Name: "Barno Karimova", BirthDate: birth, Region: "Buxoro", Phone: "+998907654321", Email: "user1@email.uz"},
	})
	if err != nil {
		t.Fatalf("InsertClients() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestInsertTransactionsEmptyBatchIsNoop(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	if err := repo.InsertTransactions(context.Background(), nil); err != nil {
		t.Fatalf("InsertTransactions() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
