package query

import (
	"fmt"
	"net/url"
	"strings"
)

// Metric is the StatLine field a time series plots.
type Metric string

const (
	MetricPoints   Metric = "points"
	MetricAssists  Metric = "assists"
	MetricRebounds Metric = "rebounds"
	MetricMinutes  Metric = "minutes"
)

// ParseMetric reports whether s names a series metric.
func ParseMetric(s string) (Metric, bool) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricPoints, MetricAssists, MetricRebounds, MetricMinutes:
		return m, true
	}
	return MetricPoints, false
}

// Allowed rolling windows. Zero disables smoothing.
var windowSizes = map[int]bool{0: true, 5: true, 10: true}

// SeriesQuery selects one player time series.
type SeriesQuery struct {
	PlayerID string
	Metric   Metric
	Window   int
}

// Normalize replaces an unknown metric with points and an unsupported window
// with zero.
func (q SeriesQuery) Normalize() SeriesQuery {
	q.PlayerID = strings.TrimSpace(q.PlayerID)
	q.Metric, _ = ParseMetric(string(q.Metric))
	if !windowSizes[q.Window] {
		q.Window = 0
	}
	return q
}

// CacheKey identifies the normalized query for response caching.
func (q SeriesQuery) CacheKey() string {
	return fmt.Sprintf("series:%s:%s:%d", q.PlayerID, q.Metric, q.Window)
}

// SeriesQueryFromValues builds a normalized series query for playerID from
// the metric and window URL parameters.
func SeriesQueryFromValues(playerID string, v url.Values) SeriesQuery {
	return SeriesQuery{
		PlayerID: playerID,
		Metric:   Metric(v.Get("metric")),
		Window:   intOr(v.Get("window"), 0),
	}.Normalize()
}
