// Package ingest turns CSV box-score rows into Team, Player, Game and
// StatLine records. Each row is upserted in dependency order so that every
// StatLine it appends references records that already exist.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/hoopstats/internal/model"
)

// Writer is the write side of a Record Store. Upserts never modify an
// existing record and report whether they created one.
type Writer interface {
	UpsertTeam(ctx context.Context, name, league string) (id string, created bool, err error)
	UpsertPlayer(ctx context.Context, name, teamID string, position *string) (id string, created bool, err error)
	UpsertGame(ctx context.Context, date time.Time, teamID string) (id string, created bool, err error)
	InsertStatLine(ctx context.Context, line model.StatLine) (string, error)
	Reset(ctx context.Context) error
}

// Notifier is implemented by stores that can announce a finished batch.
type Notifier interface {
	NotifyIngested(ctx context.Context, inserted int) error
}

// Hook runs after a batch that inserted at least one StatLine.
type Hook func(ctx context.Context, res Result)

// Upserter writes rows through a Writer.
type Upserter struct {
	w      Writer
	logger *slog.Logger
	hooks  []Hook
}

// NewUpserter creates an Upserter. A nil logger uses slog.Default.
func NewUpserter(w Writer, logger *slog.Logger, hooks ...Hook) *Upserter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Upserter{w: w, logger: logger, hooks: hooks}
}

// OnIngest registers a hook run after each batch.
func (u *Upserter) OnIngest(h Hook) {
	u.hooks = append(u.hooks, h)
}

// Ingest upserts rows in order. Invalid rows are recorded in the Result and
// skipped; a store failure stops the run and is returned with the partial
// Result.
func (u *Upserter) Ingest(ctx context.Context, rows []Row) (Result, error) {
	var res Result
	err := u.ingest(ctx, rows, &res)
	u.finish(ctx, res)
	return res, err
}

// IngestReader parses CSV from r and ingests it.
func (u *Upserter) IngestReader(ctx context.Context, r io.Reader) (Result, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return Result{}, err
	}
	return u.Ingest(ctx, rows)
}

// IngestFiles ingests each file on a pool of workers. Unreadable files are
// recorded as errors; the first store failure is returned once every worker
// has stopped.
func (u *Upserter) IngestFiles(ctx context.Context, paths []string, workers int) (Result, error) {
	start := time.Now()
	var res Result
	if len(paths) == 0 {
		return res, nil
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan string, len(paths))
	for _, p := range paths {
		ch <- p
	}
	close(ch)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range ch {
				if ctx.Err() != nil {
					return
				}
				var (
					fileRes  Result
					storeErr error
				)
				rows, err := ReadFile(path)
				if err != nil {
					fileRes.AddErrorf("%v", err)
				} else {
					storeErr = u.ingest(ctx, rows, &fileRes)
					u.logger.Info("ingested file", "path", path, "summary", fileRes.Summary())
				}

				mu.Lock()
				res.Add(fileRes)
				if storeErr != nil && firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", path, storeErr)
					cancel()
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	u.logger.Info("ingest run complete", "files", len(paths), "summary", res.Summary(), "duration", time.Since(start))
	u.finish(context.WithoutCancel(ctx), res)
	return res, firstErr
}

// SeedDemo replaces every record with the contents of the CSV at path. The
// file is parsed before anything is deleted.
func (u *Upserter) SeedDemo(ctx context.Context, path string) (Result, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read demo data: %w", err)
	}
	if err := u.w.Reset(ctx); err != nil {
		return Result{}, fmt.Errorf("reset store: %w", err)
	}
	u.logger.Info("store reset for demo seed", "path", path)
	return u.Ingest(ctx, rows)
}

func (u *Upserter) ingest(ctx context.Context, rows []Row, res *Result) error {
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Rows++
		if err := row.Validate(); err != nil {
			res.Skipped++
			res.AddErrorf("line %d: %v", row.Line, err)
			continue
		}
		if err := u.upsertRow(ctx, row, res); err != nil {
			return fmt.Errorf("line %d: %w", row.Line, err)
		}
	}
	return nil
}

func (u *Upserter) upsertRow(ctx context.Context, row Row, res *Result) error {
	league := row.League
	if league == "" {
		league = model.DefaultLeague
	}
	teamID, created, err := u.w.UpsertTeam(ctx, row.Team, league)
	if err != nil {
		return err
	}
	if created {
		res.TeamsCreated++
	}

	playerID, created, err := u.w.UpsertPlayer(ctx, row.Player, teamID, model.String(row.Position))
	if err != nil {
		return err
	}
	if created {
		res.PlayersCreated++
	}

	gameID, created, err := u.w.UpsertGame(ctx, row.GameDate(), teamID)
	if err != nil {
		return err
	}
	if created {
		res.GamesCreated++
	}

	line := row.StatLine()
	line.PlayerID = playerID
	line.GameID = gameID
	if _, err := u.w.InsertStatLine(ctx, line); err != nil {
		return err
	}
	res.Inserted++
	return nil
}

func (u *Upserter) finish(ctx context.Context, res Result) {
	if res.Inserted == 0 {
		return
	}
	if n, ok := u.w.(Notifier); ok {
		if err := n.NotifyIngested(ctx, res.Inserted); err != nil {
			u.logger.Warn("ingest notification failed", "error", err)
		}
	}
	for _, h := range u.hooks {
		h(ctx, res)
	}
}
