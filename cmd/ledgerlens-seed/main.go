package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerlens/ledgerlens/internal/bank/sqlstore"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/migrations"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/seed"
)

func main() {
	cfg, err := config.LoadFromEnv("ledgerlens-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlstore.Open(ctx, sqlstore.DBConfig{
		Driver:          cfg.Bank.Driver,
		DSN:             cfg.Bank.DSN,
		MaxOpenConns:    cfg.Bank.MaxOpenConns,
		MaxIdleConns:    cfg.Bank.MaxIdleConns,
		ConnMaxIdleTime: cfg.Bank.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Bank.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open bank database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	applied, err := migrations.NewRunner().Up(ctx, db, 0)
	if err != nil {
		logger.Error("schema migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	if applied > 0 {
		logger.Info("schema migrated", slog.Int("applied", applied))
	}

	service, err := seed.NewService(seed.Config{
		Clients:   cfg.Seed.Clients,
		BatchSize: cfg.Seed.BatchSize,
		RandSeed:  cfg.Seed.RandSeed,
	}, sqlstore.NewRepository(db), logger)
	if err != nil {
		logger.Error("failed to initialize seeder", slog.Any("error", err))
		os.Exit(1)
	}

	summary, err := service.Run(ctx)
	if err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
	if summary.Skipped {
		logger.Info("seeding skipped, data already present")
		return
	}
	logger.Info(
		"seeding complete",
		slog.Int64("clients", summary.Clients),
		slog.Int64("accounts", summary.Accounts),
		slog.Int64("transactions", summary.Transactions),
		slog.Duration("duration", summary.Duration),
	)
}
