package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
	"github.com/albapepper/hoopstats/internal/store/memstore"
)

var (
	d1 = time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)
	d2 = time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC)
)

type line struct {
	team, player, position string
	date                   time.Time
	points                 float64
}

func newStore(t *testing.T, lines ...line) (*memstore.Store, map[string]string) {
	t.Helper()
	ctx := context.Background()
	n := 0
	s := memstore.New(memstore.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}))
	ids := map[string]string{}
	for _, l := range lines {
		teamID, _, err := s.UpsertTeam(ctx, l.team, model.DefaultLeague)
		require.NoError(t, err)
		playerID, _, err := s.UpsertPlayer(ctx, l.player, teamID, model.String(l.position))
		require.NoError(t, err)
		gameID, _, err := s.UpsertGame(ctx, l.date, teamID)
		require.NoError(t, err)
		_, err = s.InsertStatLine(ctx, model.StatLine{
			PlayerID: playerID,
			GameID:   gameID,
			Points:   model.Float(l.points),
			Minutes:  model.Float(25),
		})
		require.NoError(t, err)
		ids[l.player] = playerID
	}
	return s, ids
}

func TestPlayerSeries(t *testing.T) {
	s, ids := newStore(t,
		line{"Duke", "A. Smith", "G", d2, 20},
		line{"Duke", "A. Smith", "G", d1, 10},
	)
	e := New(s, nil)
	ctx := context.Background()

	t.Run("raw values in date order", func(t *testing.T) {
		points, err := e.PlayerSeries(ctx, query.SeriesQuery{PlayerID: ids["A. Smith"], Metric: query.MetricPoints})
		require.NoError(t, err)
		assert.Equal(t, []model.SeriesPoint{{Date: d1, Value: 10}, {Date: d2, Value: 20}}, points)
	})

	t.Run("unknown metric reads points", func(t *testing.T) {
		points, err := e.PlayerSeries(ctx, query.SeriesQuery{PlayerID: ids["A. Smith"], Metric: "steals"})
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, 10.0, points[0].Value)
	})

	t.Run("missing metric values read as zero", func(t *testing.T) {
		points, err := e.PlayerSeries(ctx, query.SeriesQuery{PlayerID: ids["A. Smith"], Metric: query.MetricRebounds})
		require.NoError(t, err)
		assert.Equal(t, []model.SeriesPoint{{Date: d1, Value: 0}, {Date: d2, Value: 0}}, points)
	})

	t.Run("unknown player is empty, not an error", func(t *testing.T) {
		points, err := e.PlayerSeries(ctx, query.SeriesQuery{PlayerID: "nobody"})
		require.NoError(t, err)
		assert.NotNil(t, points)
		assert.Empty(t, points)

		points, err = e.PlayerSeries(ctx, query.SeriesQuery{})
		require.NoError(t, err)
		assert.NotNil(t, points)
		assert.Empty(t, points)
	})
}

func TestQueryPlayers(t *testing.T) {
	s, ids := newStore(t,
		line{"Duke", "Zed Duke", "G", d1, 12},
		line{"Duke Blue", "Mike Dukakis", "F", d1, 12},
		line{"Kansas", "Kim Lee", "C", d1, 30},
		line{"Kansas", "Kim Lee", "C", d2, 10},
	)
	e := New(s, nil)
	ctx := context.Background()

	t.Run("team match is anchored, name match is not", func(t *testing.T) {
		q := query.NewPlayerQuery()
		q.TeamEquals = "Duke"
		page, err := e.QueryPlayers(ctx, q)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Zed Duke", page.Items[0].Name)
		assert.Equal(t, 1, page.Total)

		q = query.NewPlayerQuery()
		q.NameContains = "duk"
		page, err = e.QueryPlayers(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		names := []string{page.Items[0].Name, page.Items[1].Name}
		assert.Contains(t, names, "Mike Dukakis")
	})

	t.Run("page past the end keeps the total", func(t *testing.T) {
		q := query.NewPlayerQuery()
		q.PageSize = 2
		q.Page = 5
		page, err := e.QueryPlayers(ctx, q)
		require.NoError(t, err)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 5, page.Page)
		assert.Equal(t, 2, page.PageSize)
	})

	t.Run("ties are broken by player id", func(t *testing.T) {
		q := query.NewPlayerQuery()
		for range 5 {
			page, err := e.QueryPlayers(ctx, q)
			require.NoError(t, err)
			require.Len(t, page.Items, 3)
			assert.Equal(t, ids["Kim Lee"], page.Items[0].ID)
			assert.Equal(t, ids["Zed Duke"], page.Items[1].ID)
			assert.Equal(t, ids["Mike Dukakis"], page.Items[2].ID)
		}
	})

	t.Run("summary shape", func(t *testing.T) {
		q := query.NewPlayerQuery()
		q.TeamEquals = "kansas"
		page, err := e.QueryPlayers(ctx, q)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		kim := page.Items[0]
		assert.Equal(t, 2, kim.GameCount)
		assert.InDelta(t, 20.0, kim.AvgPoints, 1e-9)
		assert.Equal(t, 0.0, kim.AvgRebounds)
		assert.InDelta(t, 25.0, kim.AvgMinutes, 1e-9)
		assert.Equal(t, "C", kim.Position)
		require.NotNil(t, kim.Team)
		assert.Equal(t, "Kansas", kim.Team.Name)
	})

	t.Run("concurrent calls", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q := query.NewPlayerQuery()
				q.Page = i%2 + 1
				q.PageSize = 2
				page, err := e.QueryPlayers(ctx, q)
				assert.NoError(t, err)
				assert.Equal(t, 3, page.Total)
			}()
		}
		wg.Wait()
	})
}

func TestSummaryWithoutTeam(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	playerID, _, err := s.UpsertPlayer(ctx, "Bob", "gone-team", nil)
	require.NoError(t, err)
	for _, date := range []time.Time{d1, d2} {
		gameID, _, err := s.UpsertGame(ctx, date, "gone-team")
		require.NoError(t, err)
		points := model.Float(10)
		if date.Equal(d2) {
			points = nil
		}
		_, err = s.InsertStatLine(ctx, model.StatLine{PlayerID: playerID, GameID: gameID, Points: points})
		require.NoError(t, err)
	}

	page, err := New(s, nil).QueryPlayers(ctx, query.NewPlayerQuery())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	bob := page.Items[0]
	assert.Equal(t, "gone-team", bob.TeamID)
	assert.Nil(t, bob.Team)
	assert.Equal(t, 2, bob.GameCount)
	assert.InDelta(t, 10.0, bob.AvgPoints, 1e-9, "absent points are skipped, not counted as zero")
	assert.Equal(t, 0.0, bob.AvgAssists)
}

// overlapStore answers AggregatePlayers only once CountPlayers has started.
type overlapStore struct {
	Store
	counting chan struct{}
	once     sync.Once
}

func (o *overlapStore) AggregatePlayers(ctx context.Context, p query.Pipeline) ([]model.PlayerAggregate, error) {
	select {
	case <-o.counting:
		return o.Store.AggregatePlayers(ctx, p)
	case <-time.After(2 * time.Second):
		return nil, errors.New("count query never started")
	}
}

func (o *overlapStore) CountPlayers(ctx context.Context, p query.Pipeline) (int, error) {
	o.once.Do(func() { close(o.counting) })
	return o.Store.CountPlayers(ctx, p)
}

func TestPageAndCountOverlap(t *testing.T) {
	s, _ := newStore(t, line{"Duke", "A", "G", d1, 4})
	st := &overlapStore{Store: s, counting: make(chan struct{})}

	page, err := New(st, nil).QueryPlayers(context.Background(), query.NewPlayerQuery())
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Total)
}

func TestTeamNames(t *testing.T) {
	s, _ := newStore(t,
		line{"Kansas", "A", "", d1, 1},
		line{"Duke", "B", "", d1, 1},
		line{"duke", "C", "", d1, 1},
	)
	names, err := New(s, nil).TeamNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Duke", "Kansas", "duke"}, names)

	empty, err := New(memstore.New(), nil).TeamNames(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

// failingStore fails one operation and answers the rest.
type failingStore struct {
	Store
	failCount bool
	err       error
}

func (f failingStore) CountPlayers(ctx context.Context, p query.Pipeline) (int, error) {
	if f.failCount {
		return 0, f.err
	}
	return f.Store.CountPlayers(ctx, p)
}

func (f failingStore) PlayerStatLines(ctx context.Context, id string) ([]model.DatedStatLine, error) {
	return nil, f.err
}

func (f failingStore) TeamNames(ctx context.Context) ([]string, error) {
	return nil, f.err
}

func TestQueryExecutionError(t *testing.T) {
	boom := errors.New("connection reset")
	e := New(failingStore{Store: memstore.New(), failCount: true, err: boom}, nil)
	ctx := context.Background()

	page, err := e.QueryPlayers(ctx, query.NewPlayerQuery())
	assert.Nil(t, page, "no partial result")
	var qe *QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "count players", qe.Op)
	assert.ErrorIs(t, err, boom)

	_, err = e.PlayerSeries(ctx, query.SeriesQuery{PlayerID: "p1"})
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "player statlines", qe.Op)

	_, err = e.TeamNames(ctx)
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "list team names", qe.Op)
	assert.Equal(t, "list team names: connection reset", err.Error())
}

func TestCancelledQuery(t *testing.T) {
	s, _ := newStore(t, line{"Duke", "A", "", d1, 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(s, nil).QueryPlayers(ctx, query.NewPlayerQuery())
	assert.ErrorIs(t, err, context.Canceled)
}
