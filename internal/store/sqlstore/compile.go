package sqlstore

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/albapepper/hoopstats/internal/query"
)

// plan is a pipeline folded into the clauses it contributes.
type plan struct {
	dates *query.DateRange
	match *query.MatchPlayers
	sort  *query.SortBy
	page  *query.Paginate
	count bool
}

func fold(p query.Pipeline) (plan, error) {
	var pl plan
	if err := p.Validate(); err != nil {
		return pl, err
	}
	for _, stage := range p {
		switch st := stage.(type) {
		case query.JoinStatLines, query.JoinGames, query.GroupByPlayer, query.JoinTeams:
			// always part of the statement shape
		case query.DateRange:
			pl.dates = &st
		case query.MatchPlayers:
			pl.match = &st
		case query.SortBy:
			pl.sort = &st
		case query.Paginate:
			pl.page = &st
		case query.Count:
			pl.count = true
		default:
			return pl, fmt.Errorf("%w: unsupported stage %q", query.ErrInvalidPipeline, stage.Name())
		}
	}
	return pl, nil
}

var sortColumns = map[query.SortField]string{
	query.SortPoints:   "COALESCE(a.avg_points, 0)",
	query.SortAssists:  "COALESCE(a.avg_assists, 0)",
	query.SortRebounds: "COALESCE(a.avg_rebounds, 0)",
	query.SortMinutes:  "COALESCE(a.avg_minutes, 0)",
	query.SortName:     "p.name",
}

// compile turns a player pipeline into one statement:
//
//	SELECT ... FROM (statlines JOIN games [WHERE dates] GROUP BY player) a
//	JOIN players p LEFT JOIN teams t [WHERE filters] [ORDER BY ...] [LIMIT/OFFSET]
//
// or SELECT COUNT(*) over the same body for a count pipeline.
func (s *Store) compile(p query.Pipeline) (string, []interface{}, error) {
	pl, err := fold(p)
	if err != nil {
		return "", nil, err
	}

	agg := s.flavor.NewSelectBuilder()
	agg.Select(
		"s.player_id AS player_id",
		"COUNT(*) AS game_count",
		"AVG(s.points) AS avg_points",
		"AVG(s.assists) AS avg_assists",
		"AVG(s.rebounds) AS avg_rebounds",
		"AVG(s.minutes) AS avg_minutes",
	)
	agg.From("statlines s")
	agg.Join("games g", "g.id = s.game_id")
	if pl.dates != nil {
		var where []string
		if pl.dates.From != nil {
			where = append(where, agg.GreaterEqualThan("g.played_at", pl.dates.From.Unix()))
		}
		if pl.dates.To != nil {
			where = append(where, agg.LessEqualThan("g.played_at", pl.dates.To.Unix()))
		}
		if len(where) > 0 {
			agg.Where(where...)
		}
	}
	agg.GroupBy("s.player_id")

	sb := s.flavor.NewSelectBuilder()
	sb.Select(
		"p.id AS id",
		"p.name AS name",
		"p.team_id AS team_id",
		"p.position AS position",
		"a.game_count AS game_count",
		"a.avg_points AS avg_points",
		"a.avg_assists AS avg_assists",
		"a.avg_rebounds AS avg_rebounds",
		"a.avg_minutes AS avg_minutes",
		"t.name AS team_name",
	)
	sb.From(sb.BuilderAs(agg, "a"))
	sb.Join("players p", "p.id = a.player_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "teams t", "t.id = p.team_id")

	if pl.match != nil {
		var where []string
		if pl.match.NameContains != "" {
			where = append(where, "p.name_folded LIKE "+sb.Var(containsPattern(pl.match.NameContains))+` ESCAPE '\'`)
		}
		if pl.match.TeamEquals != "" {
			where = append(where, "t.name_folded = "+sb.Var(query.Fold(pl.match.TeamEquals)))
		}
		if pl.match.PositionContains != "" {
			where = append(where, "p.position_folded LIKE "+sb.Var(containsPattern(pl.match.PositionContains))+` ESCAPE '\'`)
		}
		if len(where) > 0 {
			sb.Where(where...)
		}
	}

	if pl.count {
		cb := s.flavor.NewSelectBuilder()
		cb.Select("COUNT(*) AS total")
		cb.From(cb.BuilderAs(sb, "m"))
		sql, args := cb.Build()
		return sql, args, nil
	}

	if pl.sort != nil {
		col, ok := sortColumns[pl.sort.Field]
		if !ok {
			col = sortColumns[query.SortPoints]
		}
		dir := "DESC"
		if pl.sort.Dir == query.Asc {
			dir = "ASC"
		}
		sb.OrderBy(col+" "+dir, "p.id ASC")
	}
	if pl.page != nil {
		sb.Limit(pl.page.Limit)
		sb.Offset(pl.page.Skip)
	}

	sql, args := sb.Build()
	return sql, args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern is a LIKE pattern matching folded s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(query.Fold(s)) + "%"
}
