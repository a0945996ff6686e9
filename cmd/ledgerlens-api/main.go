package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/api"
	"github.com/ledgerlens/ledgerlens/internal/api/uistatic"
	"github.com/ledgerlens/ledgerlens/internal/auth"
	"github.com/ledgerlens/ledgerlens/internal/bank/sqlstore"
	"github.com/ledgerlens/ledgerlens/internal/cache"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/ratelimit"
	"github.com/ledgerlens/ledgerlens/internal/report"
	"github.com/ledgerlens/ledgerlens/internal/storage"
	fsstore "github.com/ledgerlens/ledgerlens/internal/storage/fs"
	s3store "github.com/ledgerlens/ledgerlens/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("ledgerlens-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	db, err := sqlstore.Open(context.Background(), sqlstore.DBConfig{
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

	repo := sqlstore.NewRepository(db)
	translator, err := buildTranslator(cfg)
	if err != nil {
		logger.Error("failed to initialize query translator", slog.Any("error", err))
		os.Exit(1)
	}

	var objectStore storage.ObjectStore
	if cfg.Archive.Enabled {
		objectStore, err = s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
	} else {
		objectStore, err = fsstore.New(cfg.Reports.Dir)
	}
	if err != nil {
		logger.Error("failed to initialize report store", slog.Any("error", err))
		os.Exit(1)
	}

	reportService := &report.Service{
		Store: objectStore,
		Config: report.Config{
			MaxAge:          cfg.Reports.MaxAge,
			CleanupInterval: cfg.Reports.CleanupInterval,
		},
		Logger: logger,
	}

	deps := api.Dependencies{
		Logger:     logger,
		Repo:       repo,
		Translator: translator,
		Reports:    reportService,
		UI:         uistatic.Handler(),
		Readiness: api.CombineReadinessChecks(
			api.CheckBankStore(repo),
			api.CheckTranslator(translator),
		),
		DependencyTimeout: 2 * time.Second,
	}
	if cfg.Cache.Enabled {
		deps.QueryCache = cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			PerMinute: cfg.RateLimit.PerMinute,
			Burst:     cfg.RateLimit.Burst,
		})
		deps.RateLimitMiddleware = ratelimit.Middleware(logger, limiter)
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := reportService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("report cleanup loop failed", slog.Any("error", err))
		}
	}()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func buildTranslator(cfg config.Config) (nl2sql.Translator, error) {
	switch cfg.AI.Provider {
	case "ollama":
		primary, err := nl2sql.NewOllamaTranslator(nl2sql.OllamaConfig{
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return nl2sql.WithFallback(primary), nil
	case "openai":
		primary, err := nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return nl2sql.WithFallback(primary), nil
	default:
		return nl2sql.NewFallbackTranslator(), nil
	}
}
