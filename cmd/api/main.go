// Command api is the Hoopstats API server.
//
// Usage:
//
//	hoopstats-api
//	STORE_DRIVER=memory API_PORT=8080 hoopstats-api

// @title Hoopstats API
// @version 1.0.0
// @description Basketball box-score analytics: aggregated, filterable, sortable player summaries and per-player time series over ingested CSV data.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Hoopstats
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/hoopstats/internal/api"
	"github.com/albapepper/hoopstats/internal/cache"
	"github.com/albapepper/hoopstats/internal/config"
	"github.com/albapepper/hoopstats/internal/ingest"
	"github.com/albapepper/hoopstats/internal/listener"
	"github.com/albapepper/hoopstats/internal/maintenance"
	"github.com/albapepper/hoopstats/internal/stats"
	"github.com/albapepper/hoopstats/internal/store"

	_ "github.com/albapepper/hoopstats/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Open the record store
	logger.Info("Opening record store...", "driver", cfg.StoreDriver)
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open record store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	if st.Pool != nil {
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
	}

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	engine := stats.New(st, logger)
	upserter := ingest.NewUpserter(st, logger, maintenance.AfterIngest(st, logger))

	// Other processes ingesting into the same Postgres database announce it
	// on the notify channel; drop cached responses when they do.
	if st.Pool != nil {
		go listener.Start(ctx, cfg.DatabaseURL, func(ctx context.Context, ev listener.IngestEvent) {
			n := appCache.Purge()
			logger.Info("Cache purged after ingest", "inserted", ev.Inserted, "entries", n)
		}, logger)
	}

	// Start maintenance tickers (orphan sweep, analyze)
	if cfg.MaintenanceEnabled {
		go maintenance.Start(ctx, st, maintenance.DefaultConfig(), logger)
	}

	// Create router
	router := api.NewRouter(st, engine, upserter, appCache, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Hoopstats API",
			"addr", addr,
			"environment", cfg.Environment,
			"store", st.Driver(),
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
