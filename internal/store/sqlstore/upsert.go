package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
)

// UpsertTeam inserts the team unless one with the same name exists, then
// returns the stored id. Existing teams are left untouched.
func (s *Store) UpsertTeam(ctx context.Context, name, league string) (string, bool, error) {
	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto("teams")
	ib.Cols("id", "name", "name_folded", "league")
	ib.Values(uuid.NewString(), name, query.Fold(name), league)
	ib.SQL("ON CONFLICT (name) DO NOTHING")

	q, args := ib.Build()
	created, err := s.insertIgnore(ctx, q, args)
	if err != nil {
		return "", false, fmt.Errorf("upsert team %q: %w", name, err)
	}

	sb := s.flavor.NewSelectBuilder()
	sb.Select("id").From("teams").Where(sb.Equal("name", name))
	q, args = sb.Build()
	id, err := s.lookupID(ctx, q, args)
	if err != nil {
		return "", false, fmt.Errorf("lookup team %q: %w", name, err)
	}
	return id, created, nil
}

// UpsertPlayer inserts the player on teamID unless one with the same name
// exists, then returns the stored id. An existing player keeps its team and
// position.
func (s *Store) UpsertPlayer(ctx context.Context, name, teamID string, position *string) (string, bool, error) {
	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto("players")
	var positionFolded *string
	if position != nil {
		positionFolded = model.String(query.Fold(*position))
	}
	ib.Cols("id", "name", "name_folded", "team_id", "position", "position_folded")
	ib.Values(uuid.NewString(), name, query.Fold(name), teamID, position, positionFolded)
	ib.SQL("ON CONFLICT (name) DO NOTHING")

	q, args := ib.Build()
	created, err := s.insertIgnore(ctx, q, args)
	if err != nil {
		return "", false, fmt.Errorf("upsert player %q: %w", name, err)
	}

	sb := s.flavor.NewSelectBuilder()
	sb.Select("id").From("players").Where(sb.Equal("name", name))
	q, args = sb.Build()
	id, err := s.lookupID(ctx, q, args)
	if err != nil {
		return "", false, fmt.Errorf("lookup player %q: %w", name, err)
	}
	return id, created, nil
}

// UpsertGame inserts the game keyed by (date, teamID) unless it exists, then
// returns the stored id.
func (s *Store) UpsertGame(ctx context.Context, date time.Time, teamID string) (string, bool, error) {
	playedAt := date.UTC().Unix()

	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto("games")
	ib.Cols("id", "played_at", "home_team_id", "away_team_id")
	ib.Values(uuid.NewString(), playedAt, teamID, teamID)
	ib.SQL("ON CONFLICT (played_at, home_team_id) DO NOTHING")

	q, args := ib.Build()
	created, err := s.insertIgnore(ctx, q, args)
	if err != nil {
		return "", false, fmt.Errorf("upsert game %d/%s: %w", playedAt, teamID, err)
	}

	sb := s.flavor.NewSelectBuilder()
	sb.Select("id").From("games").Where(
		sb.Equal("played_at", playedAt),
		sb.Equal("home_team_id", teamID),
	)
	q, args = sb.Build()
	id, err := s.lookupID(ctx, q, args)
	if err != nil {
		return "", false, fmt.Errorf("lookup game %d/%s: %w", playedAt, teamID, err)
	}
	return id, created, nil
}

// InsertStatLine appends line with a fresh id.
func (s *Store) InsertStatLine(ctx context.Context, line model.StatLine) (string, error) {
	id := uuid.NewString()
	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto("statlines")
	ib.Cols(
		"id", "player_id", "game_id",
		"minutes", "points", "assists", "rebounds", "steals", "blocks",
		"fga", "fgm", "tpa", "tpm", "fta", "ftm", "turnovers", "plus_minus",
	)
	ib.Values(
		id, line.PlayerID, line.GameID,
		line.Minutes, line.Points, line.Assists, line.Rebounds, line.Steals, line.Blocks,
		line.FGA, line.FGM, line.TPA, line.TPM, line.FTA, line.FTM, line.Turnovers, line.PlusMinus,
	)
	sql, args := ib.Build()
	if _, err := s.db.ExecContext(ctx, sql, args...); err != nil {
		return "", fmt.Errorf("insert statline: %w", err)
	}
	return id, nil
}

// Reset deletes every record in one transaction.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"statlines", "games", "players", "teams"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

func (s *Store) insertIgnore(ctx context.Context, sql string, args []interface{}) (bool, error) {
	res, err := s.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) lookupID(ctx context.Context, sql string, args []interface{}) (string, error) {
	var id string
	if err := s.db.GetContext(ctx, &id, sql, args...); err != nil {
		return "", err
	}
	return id, nil
}
