package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/bank"
	"github.com/ledgerlens/ledgerlens/internal/observability"
)

type Config struct {
	Clients   int
	BatchSize int
	RandSeed  int64
}

// Service populates the bank store with generated clients, accounts,
// and transactions. Seeding is idempotent: a store that already holds
// clients is left untouched.
type Service struct {
	cfg  Config
	repo bank.Repository
	log  *slog.Logger
}

type Summary struct {
	Clients      int64         `json:"clients"`
	Accounts     int64         `json:"accounts"`
	Transactions int64         `json:"transactions"`
	Skipped      bool          `json:"skipped"`
	Duration     time.Duration `json:"duration"`
}

func NewService(cfg Config, repo bank.Repository, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if cfg.Clients <= 0 {
		return nil, fmt.Errorf("client count must be positive")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{cfg: cfg, repo: repo, log: logger}, nil
}

func (s *Service) Run(ctx context.Context) (Summary, error) {
	started := time.Now()

	existing, err := s.repo.CountClients(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("count clients: %w", err)
	}
	if existing > 0 {
		s.log.Info("store already seeded, skipping", slog.Int64("clients", existing))
		return Summary{Clients: existing, Skipped: true, Duration: time.Since(started)}, nil
	}

	generator := NewGenerator(s.cfg.RandSeed)
	summary := Summary{}

	clients := make([]bank.Client, 0, s.cfg.BatchSize)
	var accounts []bank.Account
	var transactions []bank.Transaction

	flush := func() error {
		if len(clients) == 0 {
			return nil
		}
		if err := s.repo.InsertClients(ctx, clients); err != nil {
			return fmt.Errorf("insert clients: %w", err)
		}
		if err := s.repo.InsertAccounts(ctx, accounts); err != nil {
			return fmt.Errorf("insert accounts: %w", err)
		}
		if err := s.repo.InsertTransactions(ctx, transactions); err != nil {
			return fmt.Errorf("insert transactions: %w", err)
		}

		summary.Clients += int64(len(clients))
		summary.Accounts += int64(len(accounts))
		summary.Transactions += int64(len(transactions))
		observability.AddSeedRows("clients", len(clients))
		observability.AddSeedRows("accounts", len(accounts))
		observability.AddSeedRows("transactions", len(transactions))

		s.log.Info(
			"seed batch inserted",
			slog.Int64("clients_total", summary.Clients),
			slog.Int64("accounts_total", summary.Accounts),
			slog.Int64("transactions_total", summary.Transactions),
		)

		clients = clients[:0]
		accounts = accounts[:0]
		transactions = transactions[:0]
		return nil
	}

	for i := 0; i < s.cfg.Clients; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		client, clientAccounts, clientTransactions := generator.NextClient()
		clients = append(clients, client)
		accounts = append(accounts, clientAccounts...)
		transactions = append(transactions, clientTransactions...)

		if len(clients) >= s.cfg.BatchSize {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}
	if err := flush(); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(started)
	s.log.Info(
		"seeding complete",
		slog.Int64("clients", summary.Clients),
		slog.Int64("accounts", summary.Accounts),
		slog.Int64("transactions", summary.Transactions),
		slog.Duration("duration", summary.Duration),
	)
	return summary, nil
}
