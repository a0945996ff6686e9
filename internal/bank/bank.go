package bank

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("bank: not found")

// Regions is the fixed set of regions used by the mock dataset and surfaced
// to the translator as schema context.
var Regions = []string{
	"Toshkent", "Samarqand", "Buxoro", "Andijon", "Farg'ona",
	"Namangan", "Qashqadaryo", "Surxondaryo", "Jizzax", "Sirdaryo",
	"Navoiy", "Xorazm", "Qoraqalpog'iston",
}

type Client struct {
	ID        int64
	Name      string
	BirthDate time.Time
	Region    string
	Phone     string
	Email     string
}

type Account struct {
	ID            int64
	ClientID      int64
	AccountNumber string
	Balance       float64
	AccountType   string
	OpenDate      time.Time
	Status        string
}

type Transaction struct {
	ID              int64
	AccountID       int64
	Amount          float64
	OccurredAt      time.Time
	TxType          string
	Description     string
	ReferenceNumber string
}

type Stats struct {
	Clients      int64   `json:"clients"`
	Accounts     int64   `json:"accounts"`
	Transactions int64   `json:"transactions"`
	TotalBalance float64 `json:"total_balance"`
}

type QueryRequest struct {
	SQL      string
	RowLimit int
}

type QueryResult struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type TableSample struct {
	TableName  string
	Columns    []string
	SampleRows [][]any
}

type Repository interface {
	HealthCheck(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	ExecuteQuery(ctx context.Context, req QueryRequest) (QueryResult, error)
	ListTables(ctx context.Context) ([]string, error)
	SampleTable(ctx context.Context, tableName string, rows int) (TableSample, error)
	CountClients(ctx context.Context) (int64, error)
	InsertClients(ctx context.Context, clients []Client) error
	InsertAccounts(ctx context.Context, accounts []Account) error
	InsertTransactions(ctx context.Context, transactions []Transaction) error
}
