package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
	"github.com/albapepper/hoopstats/internal/store/memstore"
)

// notifyingStore records NotifyIngested calls on top of a memstore.
type notifyingStore struct {
	*memstore.Store
	mu       sync.Mutex
	notified []int
}

func (n *notifyingStore) NotifyIngested(ctx context.Context, inserted int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, inserted)
	return nil
}

// brokenStore fails every statline insert.
type brokenStore struct {
	*memstore.Store
}

var errDiskFull = errors.New("disk full")

func (brokenStore) InsertStatLine(ctx context.Context, line model.StatLine) (string, error) {
	return "", errDiskFull
}

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func countPlayers(t *testing.T, s *memstore.Store) int {
	t.Helper()
	n, err := s.CountPlayers(context.Background(), query.CountPipeline(query.NewPlayerQuery()))
	require.NoError(t, err)
	return n
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	up := NewUpserter(s, nil)

	in := header +
		"Ann,Duke,G,2024-11-04,18,4,5,14,7,5,2,3,2,1,31\n" +
		"Bo,Duke,F,2024-11-04,9,1,8,8,4,0,0,2,1,2,24\n" +
		",Duke,F,2024-11-04,9,1,8,8,4,0,0,2,1,2,24\n" +
		"Ann,Duke,G,soon,18,4,5,14,7,5,2,3,2,1,31\n" +
		"Ann,Duke,G,2024-11-11,22,6,3,15,9,4,2,2,2,3,33\n"

	res, err := up.IngestReader(ctx, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Rows)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.TeamsCreated)
	assert.Equal(t, 2, res.PlayersCreated)
	assert.Equal(t, 2, res.GamesCreated)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "line 4: player is required", res.Errors[0])
	assert.True(t, strings.HasPrefix(res.Errors[1], "line 5: date"), res.Errors[1])

	assert.Equal(t, 2, countPlayers(t, s))

	// the same file again appends StatLines but creates nothing else
	res, err = up.IngestReader(ctx, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Zero(t, res.TeamsCreated+res.PlayersCreated+res.GamesCreated)
	assert.Equal(t, 2, countPlayers(t, s))
}

func TestIngestStoreFailure(t *testing.T) {
	up := NewUpserter(brokenStore{memstore.New()}, nil)
	res, err := up.IngestReader(context.Background(), strings.NewReader(header+
		"Ann,Duke,G,2024-11-04,18,4,5,14,7,5,2,3,2,1,31\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, "line 2: disk full", err.Error())
	assert.Equal(t, 1, res.Rows)
	assert.Zero(t, res.Inserted)
}

func TestIngestHooksAndNotify(t *testing.T) {
	ctx := context.Background()
	s := &notifyingStore{Store: memstore.New()}

	var hooked []Result
	up := NewUpserter(s, nil, func(ctx context.Context, res Result) {
		hooked = append(hooked, res)
	})

	_, err := up.Ingest(ctx, []Row{{Line: 2, Player: "Ann", Team: "Duke", Date: "2024-11-04"}})
	require.NoError(t, err)
	_, err = up.Ingest(ctx, []Row{{Line: 2, Team: "Duke"}})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, s.notified, "only batches that inserted notify")
	require.Len(t, hooked, 1)
	assert.Equal(t, 1, hooked[0].Inserted)

	var late int
	up.OnIngest(func(ctx context.Context, res Result) { late += res.Inserted })
	_, err = up.Ingest(ctx, []Row{{Line: 2, Player: "Bo", Team: "Duke", Date: "2024-11-04"}})
	require.NoError(t, err)
	assert.Equal(t, 1, late)
	assert.Len(t, hooked, 2)
}

func TestIngestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewUpserter(memstore.New(), nil).Ingest(ctx, []Row{{Player: "Ann", Team: "Duke", Date: "2024-11-04"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Rows)
}

func TestRowDefaults(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	_, err := NewUpserter(s, nil).Ingest(ctx, []Row{{Line: 2, Player: "Ann", Team: "Duke", Date: "2024-11-04"}})
	require.NoError(t, err)

	rows, err := s.AggregatePlayers(ctx, query.PagePipeline(query.NewPlayerQuery()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Position, "blank position is stored as absent")
	require.NotNil(t, rows[0].AvgPoints)
	assert.Equal(t, 0.0, *rows[0].AvgPoints)

	lines, err := s.PlayerStatLines(ctx, rows[0].ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC), lines[0].Date)
}

func TestIngestFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", header+"Ann,Duke,G,2024-11-04,18,4,5,14,7,5,2,3,2,1,31\n")
	b := writeCSV(t, dir, "b.csv", header+"Bo,Kansas,F,2024-11-04,9,1,8,8,4,0,0,2,1,2,24\n")
	c := writeCSV(t, dir, "c.csv", "player,team\nCy,Duke\n")
	missing := filepath.Join(dir, "missing.csv")

	s := &notifyingStore{Store: memstore.New()}
	res, err := NewUpserter(s, nil).IngestFiles(ctx, []string{a, b, c, missing}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 2, res.TeamsCreated)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, 2, countPlayers(t, s.Store))
	assert.Equal(t, []int{2}, s.notified, "one notification per run")

	empty, err := NewUpserter(s, nil).IngestFiles(ctx, nil, 4)
	require.NoError(t, err)
	assert.Zero(t, empty.Rows)
}

func TestIngestFilesStoreFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", header+"Ann,Duke,G,2024-11-04,18,4,5,14,7,5,2,3,2,1,31\n")

	_, err := NewUpserter(brokenStore{memstore.New()}, nil).IngestFiles(context.Background(), []string{a}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), "a.csv")
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := memstore.New()
	up := NewUpserter(s, nil)

	_, err := up.Ingest(ctx, []Row{{Line: 2, Player: "Old Timer", Team: "Gone", Date: "2020-01-01"}})
	require.NoError(t, err)

	t.Run("unreadable file leaves the store alone", func(t *testing.T) {
		_, err := up.SeedDemo(ctx, filepath.Join(dir, "nope.csv"))
		require.Error(t, err)
		assert.Equal(t, 1, countPlayers(t, s))
	})

	t.Run("replaces every record", func(t *testing.T) {
		path := writeCSV(t, dir, "demo.csv", header+
			"Ann,Duke,G,2024-11-04,18,4,5,14,7,5,2,3,2,1,31\n"+
			"Bo,Kansas,F,2024-11-04,9,1,8,8,4,0,0,2,1,2,24\n")
		res, err := up.SeedDemo(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Inserted)

		names, err := s.TeamNames(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Duke", "Kansas"}, names)
	})

	t.Run("bundled demo dataset", func(t *testing.T) {
		res, err := up.SeedDemo(ctx, "../../public/sample_data/demo.csv")
		require.NoError(t, err)
		assert.Equal(t, 90, res.Inserted)
		assert.Zero(t, res.Skipped)
		assert.Equal(t, 3, res.TeamsCreated)
		assert.Equal(t, 9, res.PlayersCreated)
		assert.Equal(t, 9, countPlayers(t, s))
	})
}
