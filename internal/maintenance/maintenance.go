// Package maintenance runs periodic background tasks as Go tickers.
// The Record Store enforces no referential integrity, so the orphan sweep
// reports StatLines whose player or game no longer resolves.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/hoopstats/internal/model"
)

// Store is the surface the maintenance tasks need.
type Store interface {
	Driver() string
	CountOrphans(ctx context.Context) (model.OrphanCounts, error)
	Analyze(ctx context.Context) error
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	OrphanInterval  time.Duration // Dangling StatLine references
	AnalyzeInterval time.Duration // Planner statistics refresh
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		OrphanInterval:  30 * time.Minute,
		AnalyzeInterval: 6 * time.Hour,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, store Store, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"driver", store.Driver(),
		"orphans", cfg.OrphanInterval,
		"analyze", cfg.AnalyzeInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.OrphanInterval > 0 {
		t := time.NewTicker(cfg.OrphanInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { SweepOrphans(ctx, store, logger) })
	}

	if cfg.AnalyzeInterval > 0 {
		t := time.NewTicker(cfg.AnalyzeInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { analyze(ctx, store, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// SweepOrphans counts StatLines with a dangling player or game reference and
// logs them. Orphans are excluded from every query, so nothing is deleted.
func SweepOrphans(ctx context.Context, store Store, logger *slog.Logger) model.OrphanCounts {
	counts, err := store.CountOrphans(ctx)
	if err != nil {
		logger.Warn("Orphan sweep: failed", "error", err)
		return counts
	}
	if counts.Total() > 0 {
		logger.Warn("Orphan sweep: dangling statlines",
			"missing_player", counts.MissingPlayer,
			"missing_game", counts.MissingGame)
	} else {
		logger.Debug("Orphan sweep: clean")
	}
	return counts
}

func analyze(ctx context.Context, store Store, logger *slog.Logger) {
	start := time.Now()
	if err := store.Analyze(ctx); err != nil {
		logger.Warn("Analyze failed", "error", err)
		return
	}
	logger.Info("Analyze complete", "duration", time.Since(start).Round(time.Millisecond))
}
