package stats

import (
	"context"
	"iter"
	"slices"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
)

// PlayerSeries returns the player's chronological series for q.Metric,
// smoothed with a trailing moving average when q.Window > 0. An unknown
// player yields an empty series, not an error.
func (e *Engine) PlayerSeries(ctx context.Context, q query.SeriesQuery) ([]model.SeriesPoint, error) {
	q = q.Normalize()
	if q.PlayerID == "" {
		return []model.SeriesPoint{}, nil
	}

	lines, err := e.store.PlayerStatLines(ctx, q.PlayerID)
	if err != nil {
		e.logger.Error("Player series failed", "player_id", q.PlayerID, "error", err)
		return nil, &QueryExecutionError{Op: "player statlines", Err: err}
	}

	points := slices.Collect(Series(lines, q.Metric, q.Window))
	if points == nil {
		points = []model.SeriesPoint{}
	}
	return points, nil
}

// Series yields one point per StatLine in date order (StatLine id breaks
// ties), valued by metric with absent values read as 0, and smoothed over
// window points when window > 0. The sequence can be ranged over repeatedly.
func Series(lines []model.DatedStatLine, metric query.Metric, window int) iter.Seq[model.SeriesPoint] {
	ordered := slices.Clone(lines)
	slices.SortStableFunc(ordered, func(a, b model.DatedStatLine) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		switch {
		case a.StatLineID < b.StatLineID:
			return -1
		case a.StatLineID > b.StatLineID:
			return 1
		}
		return 0
	})

	return func(yield func(model.SeriesPoint) bool) {
		values := func(yieldValue func(float64) bool) {
			for _, l := range ordered {
				if !yieldValue(metricValue(l, metric)) {
					return
				}
			}
		}
		i := 0
		for v := range MovingAverage(values, window) {
			if !yield(model.SeriesPoint{Date: ordered[i].Date.UTC(), Value: v}) {
				return
			}
			i++
		}
	}
}

// MovingAverage yields the trailing simple moving average of values over
// window points. The first window-1 outputs average over the points seen so
// far. A window below 1 passes values through unchanged.
func MovingAverage(values iter.Seq[float64], window int) iter.Seq[float64] {
	if window < 1 {
		return values
	}
	return func(yield func(float64) bool) {
		buf := make([]float64, 0, window)
		head := 0
		sum := 0.0
		for v := range values {
			if len(buf) < window {
				buf = append(buf, v)
			} else {
				sum -= buf[head]
				buf[head] = v
				head = (head + 1) % window
			}
			sum += v
			if !yield(sum / float64(len(buf))) {
				return
			}
		}
	}
}

func metricValue(l model.DatedStatLine, m query.Metric) float64 {
	var v *float64
	switch m {
	case query.MetricAssists:
		v = l.Assists
	case query.MetricRebounds:
		v = l.Rebounds
	case query.MetricMinutes:
		v = l.Minutes
	default:
		v = l.Points
	}
	if v == nil {
		return 0
	}
	return *v
}
