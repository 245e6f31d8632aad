// Package stats is the aggregation query engine and the time series builder.
//
// Both are stateless: an Engine owns nothing but the store handle it was
// built with, and every call compiles a query specification into store
// requests and shapes the result. Calls may run concurrently.
package stats

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
)

// Store is the read surface of the Record Store.
type Store interface {
	// AggregatePlayers runs a pipeline ending in query.Paginate.
	AggregatePlayers(ctx context.Context, p query.Pipeline) ([]model.PlayerAggregate, error)
	// CountPlayers runs a pipeline ending in query.Count.
	CountPlayers(ctx context.Context, p query.Pipeline) (int, error)
	// PlayerStatLines returns the player's StatLines that resolve to a game,
	// ordered by game date then StatLine id.
	PlayerStatLines(ctx context.Context, playerID string) ([]model.DatedStatLine, error)
	// TeamNames returns every distinct team name in any order.
	TeamNames(ctx context.Context) ([]string, error)
}

// Engine answers player summary and time series queries.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New creates an Engine over store.
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// QueryPlayers returns one page of player summaries and the total number of
// players matching q. The page and the count are fetched concurrently; if
// either fails the whole call fails with a *QueryExecutionError.
func (e *Engine) QueryPlayers(ctx context.Context, q query.PlayerQuery) (*model.PlayerPage, error) {
	q = q.Normalize()
	start := time.Now()

	var (
		rows  []model.PlayerAggregate
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = e.store.AggregatePlayers(gctx, query.PagePipeline(q))
		if err != nil {
			return &QueryExecutionError{Op: "aggregate players", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = e.store.CountPlayers(gctx, query.CountPipeline(q))
		if err != nil {
			return &QueryExecutionError{Op: "count players", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		e.logger.Error("Player query failed", "error", err)
		return nil, err
	}

	items := make([]model.PlayerSummary, 0, len(rows))
	for _, r := range rows {
		items = append(items, summarize(r))
	}

	e.logger.Debug("Player query",
		"sort", q.Sort, "dir", q.Dir, "page", q.Page, "page_size", q.PageSize,
		"items", len(items), "total", total, "duration", time.Since(start))

	return &model.PlayerPage{
		Items:    items,
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
	}, nil
}

// TeamNames returns the distinct team names in byte-wise ascending order.
func (e *Engine) TeamNames(ctx context.Context) ([]string, error) {
	names, err := e.store.TeamNames(ctx)
	if err != nil {
		return nil, &QueryExecutionError{Op: "list team names", Err: err}
	}
	names = append(make([]string, 0, len(names)), names...)
	slices.Sort(names)
	return slices.Compact(names), nil
}

func summarize(r model.PlayerAggregate) model.PlayerSummary {
	s := model.PlayerSummary{
		ID:          r.ID,
		Name:        r.Name,
		TeamID:      r.TeamID,
		GameCount:   r.GameCount,
		AvgPoints:   mean(r.AvgPoints),
		AvgAssists:  mean(r.AvgAssists),
		AvgRebounds: mean(r.AvgRebounds),
		AvgMinutes:  mean(r.AvgMinutes),
	}
	if r.Position != nil {
		s.Position = *r.Position
	}
	if r.TeamName != nil {
		s.Team = &model.TeamRef{Name: *r.TeamName}
	}
	return s
}

// mean normalizes a store average: nil, NaN and infinities become 0.
func mean(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
