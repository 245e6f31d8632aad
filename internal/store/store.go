// Package store selects and opens the Record Store named by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/hoopstats/internal/config"
	"github.com/albapepper/hoopstats/internal/db"
	"github.com/albapepper/hoopstats/internal/ingest"
	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/stats"
	"github.com/albapepper/hoopstats/internal/store/memstore"
	"github.com/albapepper/hoopstats/internal/store/sqlstore"
)

// Backend is everything the API, the CLI and the background jobs need from
// a Record Store.
type Backend interface {
	stats.Store
	ingest.Writer

	Driver() string
	Ping(ctx context.Context) error
	Close() error
	CountOrphans(ctx context.Context) (model.OrphanCounts, error)
	Analyze(ctx context.Context) error
}

var (
	_ Backend         = (*memstore.Store)(nil)
	_ Backend         = (*sqlstore.Store)(nil)
	_ ingest.Notifier = (*sqlstore.Store)(nil)
	_ ingest.Notifier = (*Handle)(nil)
)

// Handle is an open Backend plus the Postgres pool behind it, if any.
type Handle struct {
	Backend
	Pool *db.Pool
}

// Open connects to the configured store. SQL stores are migrated to the
// latest schema before Open returns.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Handle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var h *Handle
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return &Handle{Backend: memstore.New()}, nil

	case config.DriverSQLite:
		s, err := sqlstore.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		h = &Handle{Backend: s}

	case config.DriverPostgres:
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		h = &Handle{Backend: sqlstore.NewPostgres(pool.Pool), Pool: pool}

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if err := h.Migrate(ctx, logger); err != nil {
		h.Close()
		return nil, err
	}
	logger.Info("Record store ready", "driver", h.Driver())
	return h, nil
}

// Ping checks the store. Postgres uses the prepared health check.
func (h *Handle) Ping(ctx context.Context) error {
	if h.Pool != nil {
		return h.Pool.HealthCheck(ctx)
	}
	return h.Backend.Ping(ctx)
}

// NotifyIngested forwards to the backend when it can announce batches.
func (h *Handle) NotifyIngested(ctx context.Context, inserted int) error {
	if n, ok := h.Backend.(ingest.Notifier); ok {
		return n.NotifyIngested(ctx, inserted)
	}
	return nil
}

// Migrate brings a SQL store's schema up to date. It is a no-op for the
// in-memory store.
func (h *Handle) Migrate(ctx context.Context, logger *slog.Logger) error {
	s, ok := h.Backend.(*sqlstore.Store)
	if !ok {
		return nil
	}
	if err := s.Migrate(ctx, logger); err != nil {
		return fmt.Errorf("migrate %s: %w", s.Driver(), err)
	}
	return nil
}

// SQL returns the SQL store, if that is what h wraps.
func (h *Handle) SQL() (*sqlstore.Store, bool) {
	s, ok := h.Backend.(*sqlstore.Store)
	return s, ok
}

// Close releases the store and then its pool.
func (h *Handle) Close() error {
	err := h.Backend.Close()
	if h.Pool != nil {
		h.Pool.Close()
	}
	return err
}
