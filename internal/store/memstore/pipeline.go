package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
)

// joined is a StatLine with its player and game resolved.
type joined struct {
	player model.Player
	line   model.StatLine
	game   model.Game
}

// AggregatePlayers interprets a pipeline ending in query.Paginate.
func (s *Store) AggregatePlayers(ctx context.Context, p query.Pipeline) ([]model.PlayerAggregate, error) {
	rows, _, err := s.run(ctx, p)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountPlayers interprets a pipeline ending in query.Count.
func (s *Store) CountPlayers(ctx context.Context, p query.Pipeline) (int, error) {
	if len(p) == 0 {
		return 0, fmt.Errorf("%w: empty", query.ErrInvalidPipeline)
	}
	if _, ok := p[len(p)-1].(query.Count); !ok {
		return 0, fmt.Errorf("%w: count pipeline must end in count", query.ErrInvalidPipeline)
	}
	_, n, err := s.run(ctx, p)
	return n, err
}

// PlayerStatLines returns the player's StatLines joined to their games in
// date order, StatLine id breaking ties. Lines without a game are dropped.
func (s *Store) PlayerStatLines(ctx context.Context, playerID string) ([]model.DatedStatLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usable(ctx); err != nil {
		return nil, err
	}

	var out []model.DatedStatLine
	for _, l := range s.lines {
		if l.PlayerID != playerID {
			continue
		}
		g, ok := s.games[l.GameID]
		if !ok {
			continue
		}
		out = append(out, model.DatedStatLine{
			StatLineID: l.ID,
			Date:       g.Date,
			Points:     l.Points,
			Assists:    l.Assists,
			Rebounds:   l.Rebounds,
			Minutes:    l.Minutes,
		})
	}
	slices.SortStableFunc(out, func(a, b model.DatedStatLine) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.StatLineID, b.StatLineID)
	})
	return out, nil
}

func (s *Store) run(ctx context.Context, p query.Pipeline) ([]model.PlayerAggregate, int, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usable(ctx); err != nil {
		return nil, 0, err
	}

	var (
		lines  []joined
		groups []model.PlayerAggregate
		count  int
	)
	for _, stage := range p {
		switch st := stage.(type) {
		case query.JoinStatLines:
			lines = s.joinStatLines()
		case query.JoinGames:
			lines = s.joinGames(lines)
		case query.DateRange:
			lines = filterDates(lines, st)
		case query.GroupByPlayer:
			groups = groupByPlayer(lines)
		case query.JoinTeams:
			s.joinTeams(groups)
		case query.MatchPlayers:
			groups = matchPlayers(groups, st)
		case query.SortBy:
			sortGroups(groups, st)
		case query.Paginate:
			groups = paginate(groups, st)
		case query.Count:
			count = len(groups)
			groups = nil
		default:
			return nil, 0, fmt.Errorf("%w: unsupported stage %q", query.ErrInvalidPipeline, stage.Name())
		}
	}
	return groups, count, nil
}

func (s *Store) joinStatLines() []joined {
	out := make([]joined, 0, len(s.lines))
	for _, l := range s.lines {
		p, ok := s.players[l.PlayerID]
		if !ok {
			continue
		}
		out = append(out, joined{player: p, line: l})
	}
	return out
}

func (s *Store) joinGames(lines []joined) []joined {
	out := lines[:0]
	for _, j := range lines {
		g, ok := s.games[j.line.GameID]
		if !ok {
			continue
		}
		j.game = g
		out = append(out, j)
	}
	return out
}

func filterDates(lines []joined, r query.DateRange) []joined {
	out := lines[:0]
	for _, j := range lines {
		if r.From != nil && j.game.Date.Before(*r.From) {
			continue
		}
		if r.To != nil && j.game.Date.After(*r.To) {
			continue
		}
		out = append(out, j)
	}
	return out
}

// average accumulates a null-skipping mean.
type average struct {
	sum float64
	n   int
}

func (a *average) add(v *float64) {
	if v == nil {
		return
	}
	a.sum += *v
	a.n++
}

func (a average) value() *float64 {
	if a.n == 0 {
		return nil
	}
	return model.Float(a.sum / float64(a.n))
}

func groupByPlayer(lines []joined) []model.PlayerAggregate {
	type acc struct {
		row                                 model.PlayerAggregate
		points, assists, rebounds, minutes average
	}
	index := make(map[string]int)
	var accs []*acc
	for _, j := range lines {
		i, ok := index[j.player.ID]
		if !ok {
			i = len(accs)
			index[j.player.ID] = i
			accs = append(accs, &acc{row: model.PlayerAggregate{
				ID:       j.player.ID,
				Name:     j.player.Name,
				TeamID:   j.player.TeamID,
				Position: j.player.Position,
			}})
		}
		a := accs[i]
		a.row.GameCount++
		a.points.add(j.line.Points)
		a.assists.add(j.line.Assists)
		a.rebounds.add(j.line.Rebounds)
		a.minutes.add(j.line.Minutes)
	}

	out := make([]model.PlayerAggregate, 0, len(accs))
	for _, a := range accs {
		a.row.AvgPoints = a.points.value()
		a.row.AvgAssists = a.assists.value()
		a.row.AvgRebounds = a.rebounds.value()
		a.row.AvgMinutes = a.minutes.value()
		out = append(out, a.row)
	}
	return out
}

func (s *Store) joinTeams(groups []model.PlayerAggregate) {
	for i := range groups {
		if t, ok := s.teams[groups[i].TeamID]; ok {
			name := t.Name
			groups[i].TeamName = &name
		}
	}
}

func matchPlayers(groups []model.PlayerAggregate, m query.MatchPlayers) []model.PlayerAggregate {
	name := query.Fold(m.NameContains)
	team := query.Fold(m.TeamEquals)
	position := query.Fold(m.PositionContains)
	out := groups[:0]
	for _, g := range groups {
		if name != "" && !strings.Contains(query.Fold(g.Name), name) {
			continue
		}
		if team != "" && (g.TeamName == nil || query.Fold(*g.TeamName) != team) {
			continue
		}
		if position != "" && (g.Position == nil || !strings.Contains(query.Fold(*g.Position), position)) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func sortGroups(groups []model.PlayerAggregate, by query.SortBy) {
	key := func(g model.PlayerAggregate) float64 {
		var v *float64
		switch by.Field {
		case query.SortAssists:
			v = g.AvgAssists
		case query.SortRebounds:
			v = g.AvgRebounds
		case query.SortMinutes:
			v = g.AvgMinutes
		default:
			v = g.AvgPoints
		}
		if v == nil {
			return 0
		}
		return *v
	}
	slices.SortFunc(groups, func(a, b model.PlayerAggregate) int {
		var c int
		if by.Field == query.SortName {
			c = strings.Compare(a.Name, b.Name)
		} else {
			c = cmp.Compare(key(a), key(b))
		}
		if by.Dir == query.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func paginate(groups []model.PlayerAggregate, pg query.Paginate) []model.PlayerAggregate {
	if pg.Skip >= len(groups) {
		return []model.PlayerAggregate{}
	}
	end := min(pg.Skip+pg.Limit, len(groups))
	return slices.Clone(groups[pg.Skip:end])
}
