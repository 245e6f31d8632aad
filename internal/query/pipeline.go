package query

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Stage is one step of a player aggregation pipeline. Stores interpret the
// stages in order; the order is fixed and checked by Pipeline.Validate.
type Stage interface {
	Name() string
	rank() int
}

// JoinStatLines inner-joins every player to its StatLines. Players without
// StatLines drop out here.
type JoinStatLines struct{}

// JoinGames inner-joins each StatLine to its Game.
type JoinGames struct{}

// DateRange keeps StatLines whose game date lies within the inclusive bounds.
// A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// GroupByPlayer collapses StatLines to one row per player with a count and
// null-skipping averages.
type GroupByPlayer struct{}

// JoinTeams left-joins each grouped row to its team.
type JoinTeams struct{}

// MatchPlayers is the conjunction of the post-group filters. Empty fields
// match everything. TeamEquals is an anchored case-insensitive match, the
// other two are case-insensitive substring matches.
type MatchPlayers struct {
	NameContains     string
	TeamEquals       string
	PositionContains string
}

// SortBy orders rows by Field in Dir, then by player id ascending.
type SortBy struct {
	Field SortField
	Dir   SortDir
}

// Paginate skips Skip rows and keeps at most Limit.
type Paginate struct {
	Skip  int
	Limit int
}

// Count replaces the rows with their number.
type Count struct{}

func (JoinStatLines) Name() string { return "join_statlines" }
func (JoinGames) Name() string     { return "join_games" }
func (DateRange) Name() string     { return "date_range" }
func (GroupByPlayer) Name() string { return "group_by_player" }
func (JoinTeams) Name() string     { return "join_teams" }
func (MatchPlayers) Name() string  { return "match_players" }
func (SortBy) Name() string        { return "sort" }
func (Paginate) Name() string      { return "paginate" }
func (Count) Name() string         { return "count" }

func (JoinStatLines) rank() int { return 1 }
func (JoinGames) rank() int     { return 2 }
func (DateRange) rank() int     { return 3 }
func (GroupByPlayer) rank() int { return 4 }
func (JoinTeams) rank() int     { return 5 }
func (MatchPlayers) rank() int  { return 6 }
func (SortBy) rank() int        { return 7 }
func (Paginate) rank() int      { return 8 }
func (Count) rank() int         { return 8 }

// Empty reports whether the filter matches everything.
func (m MatchPlayers) Empty() bool {
	return m.NameContains == "" && m.TeamEquals == "" && m.PositionContains == ""
}

// Fold is the case folding every store applies to names, team names and
// positions before matching them.
func Fold(s string) string {
	return strings.ToLower(s)
}

// Pipeline is an ordered list of stages.
type Pipeline []Stage

// ErrInvalidPipeline is returned by Validate for out-of-order or incomplete
// pipelines.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// PlayerPipeline builds the shared prefix of the page and count pipelines:
// joins, the optional date range, grouping, the team join and the optional
// player filter.
func PlayerPipeline(q PlayerQuery) Pipeline {
	p := Pipeline{JoinStatLines{}, JoinGames{}}
	if q.DateFrom != nil || q.DateTo != nil {
		p = append(p, DateRange{From: q.DateFrom, To: q.DateTo})
	}
	p = append(p, GroupByPlayer{}, JoinTeams{})
	m := MatchPlayers{
		NameContains:     q.NameContains,
		TeamEquals:       q.TeamEquals,
		PositionContains: q.PositionContains,
	}
	if !m.Empty() {
		p = append(p, m)
	}
	return p
}

// PagePipeline returns the prefix followed by the sort and the page window.
func PagePipeline(q PlayerQuery) Pipeline {
	return PlayerPipeline(q).with(
		SortBy{Field: q.Sort, Dir: q.Dir},
		Paginate{Skip: q.Skip(), Limit: q.PageSize},
	)
}

// CountPipeline returns the prefix followed by a count.
func CountPipeline(q PlayerQuery) Pipeline {
	return PlayerPipeline(q).with(Count{})
}

func (p Pipeline) with(stages ...Stage) Pipeline {
	out := make(Pipeline, 0, len(p)+len(stages))
	out = append(out, p...)
	return append(out, stages...)
}

// Validate checks that stages appear in canonical order, that the joins and
// grouping are present and that the pipeline ends in Paginate or Count.
func (p Pipeline) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPipeline)
	}
	seen := map[int]bool{}
	last := 0
	for i, s := range p {
		if s == nil {
			return fmt.Errorf("%w: nil stage at %d", ErrInvalidPipeline, i)
		}
		if s.rank() <= last {
			return fmt.Errorf("%w: stage %q out of order at %d", ErrInvalidPipeline, s.Name(), i)
		}
		last = s.rank()
		seen[last] = true
	}
	for _, required := range []Stage{JoinStatLines{}, JoinGames{}, GroupByPlayer{}, JoinTeams{}} {
		if !seen[required.rank()] {
			return fmt.Errorf("%w: missing stage %q", ErrInvalidPipeline, required.Name())
		}
	}
	switch p[len(p)-1].(type) {
	case Paginate, Count:
	default:
		return fmt.Errorf("%w: must end in paginate or count", ErrInvalidPipeline)
	}
	if pg, ok := p[len(p)-1].(Paginate); ok && (pg.Skip < 0 || pg.Limit < 1) {
		return fmt.Errorf("%w: bad page window skip=%d limit=%d", ErrInvalidPipeline, pg.Skip, pg.Limit)
	}
	return nil
}
