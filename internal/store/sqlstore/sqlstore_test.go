package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
)

func openMemDB(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err, "open in-memory db")
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background(), nil))
	return s
}

func day(d int) time.Time {
	return time.Date(2024, 11, d, 0, 0, 0, 0, time.UTC)
}

func insert(t *testing.T, s *Store, team, player string, position *string, date time.Time, line model.StatLine) (playerID, gameID string) {
	t.Helper()
	ctx := context.Background()
	teamID, _, err := s.UpsertTeam(ctx, team, model.DefaultLeague)
	require.NoError(t, err)
	playerID, _, err = s.UpsertPlayer(ctx, player, teamID, position)
	require.NoError(t, err)
	gameID, _, err = s.UpsertGame(ctx, date, teamID)
	require.NoError(t, err)
	line.PlayerID, line.GameID = playerID, gameID
	_, err = s.InsertStatLine(ctx, line)
	require.NoError(t, err)
	return playerID, gameID
}

func TestMigrationVersion(t *testing.T) {
	ctx := context.Background()
	s := openMemDB(t)

	v, err := s.MigrationVersion(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, MigrationStatus{Version: 1}, v)

	// re-running is a no-op
	require.NoError(t, s.Migrate(ctx, nil))

	require.NoError(t, s.Rollback(ctx, nil))
	v, err = s.MigrationVersion(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v.Version)

	_, err = s.TeamNames(ctx)
	assert.Error(t, err, "tables are gone after rollback")

	require.NoError(t, s.Migrate(ctx, nil))
	names, err := s.TeamNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestUpserts(t *testing.T) {
	ctx := context.Background()
	s := openMemDB(t)

	teamID, created, err := s.UpsertTeam(ctx, "Duke", "NCAA")
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := s.UpsertTeam(ctx, "Duke", "ACC")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, teamID, again)

	playerID, created, err := s.UpsertPlayer(ctx, "Ann", teamID, nil)
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err = s.UpsertPlayer(ctx, "Ann", "other-team", model.String("G"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, playerID, again)

	gameID, created, err := s.UpsertGame(ctx, day(4), teamID)
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err = s.UpsertGame(ctx, day(4).Add(500*time.Millisecond), teamID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, gameID, again)

	other, created, err := s.UpsertGame(ctx, day(5), teamID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, gameID, other)
}

func TestAggregatePlayersSQLite(t *testing.T) {
	ctx := context.Background()
	s := openMemDB(t)

	ann, _ := insert(t, s, "Duke", "Ann_Lee", model.String("G"), day(4), model.StatLine{Points: model.Float(10), Assists: model.Float(2)})
	insert(t, s, "Duke", "Ann_Lee", model.String("G"), day(11), model.StatLine{Points: model.Float(20), Assists: model.Float(4)})
	bob, _ := insert(t, s, "Kansas", "AnnXLee", model.String("F"), day(4), model.StatLine{Points: model.Float(12)})
	cy, _ := insert(t, s, "Kansas", "Cy", nil, day(11), model.StatLine{})

	t.Run("default page", func(t *testing.T) {
		q := query.NewPlayerQuery()
		rows, err := s.AggregatePlayers(ctx, query.PagePipeline(q))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, ann, rows[0].ID)
		assert.Equal(t, bob, rows[1].ID)
		assert.Equal(t, cy, rows[2].ID, "null average sorts as zero")

		assert.Equal(t, 2, rows[0].GameCount)
		require.NotNil(t, rows[0].AvgPoints)
		assert.InDelta(t, 15.0, *rows[0].AvgPoints, 1e-9)
		assert.Nil(t, rows[0].AvgRebounds)
		require.NotNil(t, rows[0].TeamName)
		assert.Equal(t, "Duke", *rows[0].TeamName)
		require.NotNil(t, rows[0].Position)
		assert.Equal(t, "G", *rows[0].Position)

		assert.Nil(t, rows[2].Position)
		assert.Nil(t, rows[2].AvgPoints)

		n, err := s.CountPlayers(ctx, query.CountPipeline(q))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("like wildcards match literally", func(t *testing.T) {
		q := query.NewPlayerQuery()
		q.NameContains = "N_L"
		rows, err := s.AggregatePlayers(ctx, query.PagePipeline(q))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, ann, rows[0].ID)
	})

	t.Run("team equals is case-insensitive and anchored", func(t *testing.T) {
		q := query.NewPlayerQuery()
		q.TeamEquals = "KANSAS"
		n, err := s.CountPlayers(ctx, query.CountPipeline(q))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		q.TeamEquals = "Kans"
		n, err = s.CountPlayers(ctx, query.CountPipeline(q))
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("date range", func(t *testing.T) {
		q := query.NewPlayerQuery()
		to := day(4)
		q.DateTo = &to
		rows, err := s.AggregatePlayers(ctx, query.PagePipeline(q))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].GameCount)
		assert.InDelta(t, 12.0, *rows[0].AvgPoints, 1e-9)
	})

	t.Run("paging", func(t *testing.T) {
		q := query.NewPlayerQuery()
		q.Sort, q.Dir = query.SortName, query.Asc
		q.Page, q.PageSize = 2, 2
		rows, err := s.AggregatePlayers(ctx, query.PagePipeline(q))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Cy", rows[0].Name)

		q.Page = 9
		rows, err = s.AggregatePlayers(ctx, query.PagePipeline(q))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("mean skips absent values", func(t *testing.T) {
		s := openMemDB(t)
		ann, _ := insert(t, s, "Duke", "Ann", nil, day(4), model.StatLine{Points: model.Float(10)})
		insert(t, s, "Duke", "Ann", nil, day(11), model.StatLine{})

		rows, err := s.AggregatePlayers(ctx, query.PagePipeline(query.NewPlayerQuery()))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, ann, rows[0].ID)
		assert.Equal(t, 2, rows[0].GameCount)
		require.NotNil(t, rows[0].AvgPoints)
		assert.InDelta(t, 10.0, *rows[0].AvgPoints, 1e-9)
	})

	t.Run("unknown team keeps the player", func(t *testing.T) {
		s := openMemDB(t)
		playerID, _, err := s.UpsertPlayer(ctx, "Bob", "gone-team", nil)
		require.NoError(t, err)
		gameID, _, err := s.UpsertGame(ctx, day(4), "gone-team")
		require.NoError(t, err)
		_, err = s.InsertStatLine(ctx, model.StatLine{PlayerID: playerID, GameID: gameID, Points: model.Float(8)})
		require.NoError(t, err)

		rows, err := s.AggregatePlayers(ctx, query.PagePipeline(query.NewPlayerQuery()))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, playerID, rows[0].ID)
		assert.Equal(t, "gone-team", rows[0].TeamID)
		assert.Nil(t, rows[0].TeamName)
	})

	t.Run("non-ASCII names match case-insensitively", func(t *testing.T) {
		s := openMemDB(t)
		insert(t, s, "Žalgiris", "Šarūnas Jasikevičius", model.String("Ąžuolas"), day(4), model.StatLine{Points: model.Float(10)})

		for _, q := range []query.PlayerQuery{
			{NameContains: "šarū"},
			{NameContains: "JASIKEVIČ"},
			{TeamEquals: "žalgiris"},
			{TeamEquals: "ŽALGIRIS"},
			{PositionContains: "ąžuo"},
		} {
			q = q.Normalize()
			n, err := s.CountPlayers(ctx, query.CountPipeline(q))
			require.NoError(t, err)
			assert.Equal(t, 1, n, "%+v", q)
		}
	})
}

func TestPlayerStatLinesSQLite(t *testing.T) {
	ctx := context.Background()
	s := openMemDB(t)

	ann, _ := insert(t, s, "Duke", "Ann", nil, day(11), model.StatLine{Points: model.Float(20)})
	insert(t, s, "Duke", "Ann", nil, day(4), model.StatLine{Points: model.Float(10), Rebounds: model.Float(7)})

	lines, err := s.PlayerStatLines(ctx, ann)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, day(4).Equal(lines[0].Date))
	assert.Equal(t, time.UTC, lines[0].Date.Location())
	assert.InDelta(t, 10.0, *lines[0].Points, 1e-9)
	assert.InDelta(t, 7.0, *lines[0].Rebounds, 1e-9)
	assert.Nil(t, lines[1].Rebounds)

	none, err := s.PlayerStatLines(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrphansAndReset(t *testing.T) {
	ctx := context.Background()
	s := openMemDB(t)

	ann, _ := insert(t, s, "Duke", "Ann", nil, day(4), model.StatLine{Points: model.Float(10)})
	_, err := s.InsertStatLine(ctx, model.StatLine{PlayerID: ann, GameID: "missing"})
	require.NoError(t, err)
	_, err = s.InsertStatLine(ctx, model.StatLine{PlayerID: "missing", GameID: "missing"})
	require.NoError(t, err)

	counts, err := s.CountOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.OrphanCounts{MissingPlayer: 1, MissingGame: 2}, counts)

	rows, err := s.AggregatePlayers(ctx, query.PagePipeline(query.NewPlayerQuery()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].GameCount)

	require.NoError(t, s.Analyze(ctx))
	require.NoError(t, s.NotifyIngested(ctx, 3), "notify is a no-op on sqlite")

	require.NoError(t, s.Reset(ctx))
	counts, err = s.CountOrphans(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
	names, err := s.TeamNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestTeamNamesSQLite(t *testing.T) {
	ctx := context.Background()
	s := openMemDB(t)
	for _, name := range []string{"Kansas", "Duke", "Kansas"} {
		_, _, err := s.UpsertTeam(ctx, name, "NCAA")
		require.NoError(t, err)
	}
	names, err := s.TeamNames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Duke", "Kansas"}, names)
	assert.Equal(t, DriverSQLite, s.Driver())
	assert.NoError(t, s.Ping(ctx))
}
