package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apotekcloud/pos-terminal/api/routes"
	"github.com/apotekcloud/pos-terminal/internal/auth"
	"github.com/apotekcloud/pos-terminal/internal/backup"
	"github.com/apotekcloud/pos-terminal/internal/checkout"
	"github.com/apotekcloud/pos-terminal/internal/connectivity"
	"github.com/apotekcloud/pos-terminal/internal/outbox"
	"github.com/apotekcloud/pos-terminal/internal/receipts"
	"github.com/apotekcloud/pos-terminal/internal/reset"
	"github.com/apotekcloud/pos-terminal/internal/seed"
	"github.com/apotekcloud/pos-terminal/internal/store"
	"github.com/apotekcloud/pos-terminal/internal/syncengine"
	"github.com/apotekcloud/pos-terminal/internal/transactions"
	"github.com/apotekcloud/pos-terminal/pkg/cloud"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/db"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
	"github.com/apotekcloud/pos-terminal/pkg/metrics"
	"github.com/apotekcloud/pos-terminal/pkg/migrate"
	"github.com/apotekcloud/pos-terminal/pkg/txnumber"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos-terminal"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos-terminal",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	repo := store.NewRepository(dbClient.DB())
	recordStore, err := store.NewStore(repo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create record store", err)
		os.Exit(1)
	}

	seeder, err := seed.NewSeeder(recordStore, cfg.Password, logg)
	if err != nil {
		logg.Error(ctx, "failed to create seeder", err)
		os.Exit(1)
	}
	if cfg.FeatureFlags.SeedUsers {
		if err := seeder.EnsureDefaults(ctx); err != nil {
			logg.Error(ctx, "failed to seed default users", err)
			os.Exit(1)
		}
	}

	tracker, err := outbox.NewTracker(recordStore)
	if err != nil {
		logg.Error(ctx, "failed to create outbox tracker", err)
		os.Exit(1)
	}

	monitor, err := connectivity.NewMonitor(connectivity.NewInterfaceSource(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create connectivity monitor", err)
		os.Exit(1)
	}

	cloudClient, err := cloud.NewClient(cfg.Cloud, cloud.EnvTokenProvider{Key: cfg.Cloud.AuthTokenEnv}, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cloud client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	engine, err := syncengine.NewEngine(tracker, recordStore, monitor, cloudClient, syncMetrics, logg, cfg.Sync)
	if err != nil {
		logg.Error(ctx, "failed to create sync engine", err)
		os.Exit(1)
	}

	go monitor.Run(ctx, cfg.Connectivity.SampleInterval)

	sub := monitor.Subscribe()
	defer sub.Close()
	go func() {
		for event := range sub.C {
			if event.Type == connectivity.BecameOnline {
				engine.TriggerAsync(ctx, syncengine.ReasonBecameOnline)
			}
		}
	}()

	checkoutService, err := checkout.NewService(
		recordStore,
		txnumber.New(),
		engine,
		monitor,
		receipts.NewLogPrinter(logg),
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	transactionService, err := transactions.NewService(recordStore)
	if err != nil {
		logg.Error(ctx, "failed to create transaction service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(recordStore, cfg.JWT, logg)
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	resetService, err := reset.NewService(recordStore, seeder, logg)
	if err != nil {
		logg.Error(ctx, "failed to create reset service", err)
		os.Exit(1)
	}

	backupService, err := backup.NewService(recordStore, repo, cfg.App.TerminalID, logg)
	if err != nil {
		logg.Error(ctx, "failed to create backup service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(cfg, logg, routes.Deps{
		DB:           dbClient,
		Auth:         authService,
		Checkout:     checkoutService,
		Transactions: transactionService,
		Sync:         engine,
		Monitor:      monitor,
		Tracker:      tracker,
		Reset:        resetService,
		Backup:       backupService,
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	addr := ":" + cfg.HTTP.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"terminal": cfg.App.TerminalID,
	})
	logg.Info(startCtx, "starting terminal daemon")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logg.Error(startCtx, "terminal daemon stopped unexpectedly", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	logg.Info(startCtx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "graceful shutdown failed", err)
	}
}
