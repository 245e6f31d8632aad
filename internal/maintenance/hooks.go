package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/hoopstats/internal/ingest"
)

// AfterIngest returns an ingest hook that refreshes planner statistics once
// a batch has landed, so the next aggregate query plans against the new row
// counts.
func AfterIngest(store Store, logger *slog.Logger) ingest.Hook {
	return func(ctx context.Context, res ingest.Result) {
		start := time.Now()
		err := store.Analyze(ctx)
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Post-ingest analyze failed",
				"inserted", res.Inserted, "duration", dur, "error", err)
			return
		}
		logger.Info("Post-ingest analyze complete",
			"inserted", res.Inserted, "duration", dur)
	}
}
