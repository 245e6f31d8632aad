// Package memstore is an in-memory Record Store. It interprets query
// pipelines stage by stage in Go and backs the CLI and API when no database
// is configured, and the engine and handler tests.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/hoopstats/internal/model"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memstore: closed")

type gameKey struct {
	date   int64
	teamID string
}

// Store is a mutex-guarded set of collections. The zero value is not usable;
// call New.
type Store struct {
	mu sync.RWMutex

	teams      map[string]model.Team
	teamByName map[string]string

	players      map[string]model.Player
	playerByName map[string]string

	games     map[string]model.Game
	gameByKey map[gameKey]string

	lines []model.StatLine

	newID  func() string
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUID generator, for deterministic ids in tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{newID: uuid.NewString}
	s.clear()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) clear() {
	s.teams = make(map[string]model.Team)
	s.teamByName = make(map[string]string)
	s.players = make(map[string]model.Player)
	s.playerByName = make(map[string]string)
	s.games = make(map[string]model.Game)
	s.gameByKey = make(map[gameKey]string)
	s.lines = nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Driver names the backend.
func (s *Store) Driver() string { return "memory" }

// UpsertTeam returns the id of the team named name, creating it with league
// if it does not exist.
func (s *Store) UpsertTeam(ctx context.Context, name, league string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		return "", false, err
	}
	if id, ok := s.teamByName[name]; ok {
		return id, false, nil
	}
	t := model.Team{ID: s.newID(), Name: name, League: league}
	s.teams[t.ID] = t
	s.teamByName[name] = t.ID
	return t.ID, true, nil
}

// UpsertPlayer returns the id of the player named name, creating it on
// teamID if it does not exist. An existing player keeps its team and
// position.
func (s *Store) UpsertPlayer(ctx context.Context, name, teamID string, position *string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		return "", false, err
	}
	if id, ok := s.playerByName[name]; ok {
		return id, false, nil
	}
	p := model.Player{ID: s.newID(), Name: name, TeamID: teamID, Position: position}
	s.players[p.ID] = p
	s.playerByName[name] = p.ID
	return p.ID, true, nil
}

// UpsertGame returns the id of the game on date hosted by teamID, creating it
// if it does not exist. Dates are kept at second precision.
func (s *Store) UpsertGame(ctx context.Context, date time.Time, teamID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		return "", false, err
	}
	date = date.UTC().Truncate(time.Second)
	key := gameKey{date: date.Unix(), teamID: teamID}
	if id, ok := s.gameByKey[key]; ok {
		return id, false, nil
	}
	g := model.Game{ID: s.newID(), Date: date, HomeTeamID: teamID, AwayTeamID: teamID}
	s.games[g.ID] = g
	s.gameByKey[key] = g.ID
	return g.ID, true, nil
}

// InsertStatLine appends line with a fresh id.
func (s *Store) InsertStatLine(ctx context.Context, line model.StatLine) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		return "", err
	}
	line.ID = s.newID()
	s.lines = append(s.lines, line)
	return line.ID, nil
}

// Reset deletes every record.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		return err
	}
	s.clear()
	return nil
}

// TeamNames returns every team name.
func (s *Store) TeamNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.teams))
	for _, t := range s.teams {
		names = append(names, t.Name)
	}
	return names, nil
}

// CountOrphans counts StatLines whose player or game is missing.
func (s *Store) CountOrphans(ctx context.Context) (model.OrphanCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out model.OrphanCounts
	if err := s.usable(ctx); err != nil {
		return out, err
	}
	for _, l := range s.lines {
		if _, ok := s.players[l.PlayerID]; !ok {
			out.MissingPlayer++
		}
		if _, ok := s.games[l.GameID]; !ok {
			out.MissingGame++
		}
	}
	return out, nil
}

// Analyze is a no-op; there are no planner statistics to refresh.
func (s *Store) Analyze(ctx context.Context) error {
	return s.Ping(ctx)
}

// usable must be called with s.mu held.
func (s *Store) usable(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}
