package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"ebay-normalizer/config"
	"ebay-normalizer/services"
	"ebay-normalizer/storage"
	"ebay-normalizer/utils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ebay-normalizer <path to json files>")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger("info").Error("Invalid configuration: %v", err)
		return 1
	}
	logger := utils.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	logger.Info("=== eBay normalizer starting (run %s) ===", runID)
	logger.Info("Config: output: %s | ledger: %s | concurrency: %d | continue on error: %t",
		cfg.OutputDir, cfg.LedgerBackend, cfg.MaxConcurrency, cfg.ContinueOnError)

	store, err := openStore(ctx, cfg, logger, runID)
	if err != nil {
		logger.Error("Failed to open %s ledger: %v", cfg.LedgerBackend, err)
		return 1
	}
	ledger := services.NewLedger(store)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ledger.Close(closeCtx); err != nil {
			logger.Warn("Failed to close ledger: %v", err)
		}
	}()

	writer, err := storage.NewDatWriter(cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to prepare output directory: %v", err)
		return 1
	}

	summary := services.NewSummaryService(logger, runID)
	normalizer := services.NewNormalizer(cfg, logger, services.NewExtractor(ledger, logger), writer, summary)

	runErr := normalizer.Run(ctx, args)
	summary.Print(os.Stdout, summary.Report())

	if runErr != nil {
		logger.Error("Run failed: %v", runErr)
		return 1
	}
	logger.Info("Done. Relations written to %s", cfg.OutputDir)
	return 0
}

// openStore connects the configured ledger backend, retrying remote ones.
func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger, runID string) (storage.KeyStore, error) {
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	switch cfg.LedgerBackend {
	case config.LedgerPostgres:
		var store *storage.PostgresStore
		err := retry.Do(ctx, "connect-postgres", func() error {
			var err error
			store, err = storage.NewPostgresStore(ctx, cfg.DSN(), runID)
			return err
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.LedgerRedis:
		var store *storage.RedisStore
		err := retry.Do(ctx, "connect-redis", func() error {
			var err error
			store, err = storage.NewRedisStore(ctx, storage.RedisOptions{
				Addr:      cfg.RedisAddr,
				Password:  cfg.RedisPassword,
				DB:        cfg.RedisDB,
				KeyPrefix: cfg.RedisKeyPrefix,
				KeyTTL:    cfg.RedisKeyTTL(),
			}, runID)
			return err
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	return storage.NewMemoryStore(), nil
}
