package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
)

// AggregatePlayers runs a pipeline ending in query.Paginate.
func (s *Store) AggregatePlayers(ctx context.Context, p query.Pipeline) ([]model.PlayerAggregate, error) {
	sql, args, err := s.compile(p)
	if err != nil {
		return nil, err
	}
	rows := []model.PlayerAggregate{}
	if err := s.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("aggregate players: %w", err)
	}
	return rows, nil
}

// CountPlayers runs a pipeline ending in query.Count.
func (s *Store) CountPlayers(ctx context.Context, p query.Pipeline) (int, error) {
	if len(p) == 0 {
		return 0, fmt.Errorf("%w: empty", query.ErrInvalidPipeline)
	}
	if _, ok := p[len(p)-1].(query.Count); !ok {
		return 0, fmt.Errorf("%w: count pipeline must end in count", query.ErrInvalidPipeline)
	}
	sql, args, err := s.compile(p)
	if err != nil {
		return 0, err
	}
	var total int
	if err := s.db.GetContext(ctx, &total, sql, args...); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return total, nil
}

type datedRow struct {
	ID       string   `db:"id"`
	PlayedAt int64    `db:"played_at"`
	Points   *float64 `db:"points"`
	Assists  *float64 `db:"assists"`
	Rebounds *float64 `db:"rebounds"`
	Minutes  *float64 `db:"minutes"`
}

// PlayerStatLines returns the player's StatLines joined to their games in
// date order, StatLine id breaking ties.
func (s *Store) PlayerStatLines(ctx context.Context, playerID string) ([]model.DatedStatLine, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select(
		"s.id AS id",
		"g.played_at AS played_at",
		"s.points AS points",
		"s.assists AS assists",
		"s.rebounds AS rebounds",
		"s.minutes AS minutes",
	)
	sb.From("statlines s")
	sb.Join("games g", "g.id = s.game_id")
	sb.Where(sb.Equal("s.player_id", playerID))
	sb.OrderBy("g.played_at ASC", "s.id ASC")
	sql, args := sb.Build()

	var rows []datedRow
	if err := s.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("player statlines: %w", err)
	}

	out := make([]model.DatedStatLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.DatedStatLine{
			StatLineID: r.ID,
			Date:       time.Unix(r.PlayedAt, 0).UTC(),
			Points:     r.Points,
			Assists:    r.Assists,
			Rebounds:   r.Rebounds,
			Minutes:    r.Minutes,
		})
	}
	return out, nil
}

// TeamNames returns every distinct team name.
func (s *Store) TeamNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, "SELECT DISTINCT name FROM teams"); err != nil {
		return nil, fmt.Errorf("team names: %w", err)
	}
	return names, nil
}

// CountOrphans counts StatLines whose player or game is missing.
func (s *Store) CountOrphans(ctx context.Context) (model.OrphanCounts, error) {
	var out model.OrphanCounts
	err := s.db.GetContext(ctx, &out, `
		SELECT
			COALESCE(SUM(CASE WHEN p.id IS NULL THEN 1 ELSE 0 END), 0) AS missing_player,
			COALESCE(SUM(CASE WHEN g.id IS NULL THEN 1 ELSE 0 END), 0) AS missing_game
		FROM statlines s
		LEFT JOIN players p ON p.id = s.player_id
		LEFT JOIN games g ON g.id = s.game_id`)
	if err != nil {
		return out, fmt.Errorf("count orphans: %w", err)
	}
	return out, nil
}
