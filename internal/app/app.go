// Package app provides application-level wiring and dependency injection
// for the compliance service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dograga/compliance-checks/internal/api"
	"github.com/dograga/compliance-checks/internal/config"
	"github.com/dograga/compliance-checks/internal/inventory"
	"github.com/dograga/compliance-checks/internal/service/checker"
	"github.com/dograga/compliance-checks/internal/service/collector"
	"github.com/dograga/compliance-checks/internal/service/records"
	"github.com/dograga/compliance-checks/internal/store"
)

// Services groups the service pointers the API handler needs.
type Services struct {
	Collector *collector.Service
	Records   *records.Service
	Checker   *checker.Service
}

// App holds the fully-wired application.
type App struct {
	Services  Services
	Router    http.Handler
	Scheduler *collector.Scheduler // nil unless COLLECT_CRON is set

	cfg     *config.Config
	logger  *slog.Logger
	closers []func() error
}

// New wires the Google clients, the record store, the services and the
// router from configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	recordStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	a.closers = append(a.closers, recordStore.Close)

	assetClient, err := inventory.NewAssetClient(ctx, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create asset client: %w", err)
	}
	a.closers = append(a.closers, assetClient.Close)

	rmClient, err := inventory.NewResourceManagerClient(ctx, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create resource manager client: %w", err)
	}
	a.closers = append(a.closers, rmClient.Close)

	storageClient, err := inventory.NewStorageClient(ctx, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	a.closers = append(a.closers, storageClient.Close)

	sqlClient, err := inventory.NewSQLAdminClient(ctx, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create sql admin client: %w", err)
	}

	assetTypes, err := inventory.LoadAssetTypes(cfg.AssetTypesFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Services = Services{
		Collector: collector.NewService(assetClient, rmClient, recordStore, assetTypes, logger),
		Records:   records.NewService(recordStore, logger),
		Checker: checker.NewService(checker.Auditors{
			Storage:  storageClient,
			SQL:      sqlClient,
			BigQuery: inventory.NewBigQueryClient(logger),
			PubSub:   inventory.NewPubSubClient(logger),
			Projects: rmClient,
		}, recordStore, logger),
	}

	handler := api.NewHandler(a.Services.Collector, a.Services.Records, a.Services.Checker, logger)
	a.Router = api.NewRouter(handler, cfg)

	if cfg.CollectCron != "" {
		sched, err := collector.NewScheduler(a.Services.Collector, cfg.CollectCron, cfg.CollectScope, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Scheduler = sched
	}

	return a, nil
}

// Run starts the scheduler (if configured) and serves HTTP until ctx is
// cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer a.Scheduler.Stop()
	}

	srv := &http.Server{
		Addr:         a.cfg.ListenAddr,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		a.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("server listening",
		"addr", a.cfg.ListenAddr, "database", a.cfg.DatabaseType, "env", a.cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Close releases every client and store the app holds, in reverse
// acquisition order. Safe to call more than once.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close dependency", "error", err)
		}
	}
	a.closers = nil
}
