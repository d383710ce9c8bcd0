package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"budgetbot/internal/amqp"
	"budgetbot/internal/bot"
	"budgetbot/internal/config"
	"budgetbot/internal/fx"
	apphttp "budgetbot/internal/http"
	"budgetbot/internal/log"
	"budgetbot/internal/metrics"
	"budgetbot/internal/services"
	"budgetbot/internal/storage"
)

func main() {
	// .env is for local development; absent in production.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
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

	m := metrics.New()

	provider := fx.NewFrankfurterClient(cfg.FXAPIBaseURL, cfg.FXRateTimeout, cfg.FXCatalogTimeout)
	resolver := fx.NewResolver(provider, repo, cfg.FXCacheSize, logger, m)

	// AMQP is optional: without a broker the sheets mirror simply lags until
	// the worker's sweep finds the unsynced rows.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
	} else {
		logger.Info("AMQP disabled, expense sync events will not be published")
	}

	rollover := services.NewRolloverService(repo, logger)
	router := bot.NewRouter(
		services.NewExpenseService(repo, resolver, publisher, cfg.BaseCurrency, logger, m),
		services.NewRuleService(repo, resolver, cfg.BaseCurrency, logger),
		services.NewBudgetService(repo, logger),
		services.NewExportService(repo),
		rollover,
		logger,
		m,
	)

	srv := apphttp.NewServer(":"+cfg.Port, router, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduled rollover sweep catches users who go quiet across a month
	// boundary; the per-command check handles everyone else.
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.RolloverCron, func() {
		if err := rollover.SweepAll(ctx); err != nil {
			logger.Error("rollover sweep failed", log.FieldError, err)
		}
	}); err != nil {
		logger.Error("invalid rollover cron expression", log.FieldError, err, "cron", cfg.RolloverCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("goodbye")
}
