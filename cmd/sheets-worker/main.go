package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgetbot/internal/amqp"
	"budgetbot/internal/config"
	"budgetbot/internal/log"
	"budgetbot/internal/sheets"
	"budgetbot/internal/sheets/google"
	"budgetbot/internal/sheets/memory"
	"budgetbot/internal/storage"
	"budgetbot/internal/worker"
)

const (
	sweepInterval = 5 * time.Minute
	syncBatchSize = 50
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load configuration", log.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sheets worker")
		os.Exit(1)
	}

	// Both binaries run migrations so either can start first.
	if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
		logger.Error("failed to run migrations", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var writer sheets.ExpenseWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Error("failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New()
		logger.Warn("no GOOGLE_SPREADSHEET_ID set, mirroring to memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, writer, logger, syncBatchSize)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeExpenseSync(ctx, func(msg *amqp.ExpenseSyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		})
	})
	g.Go(func() error {
		return syncWorker.RunPendingSweep(ctx, sweepInterval)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("goodbye")
}
