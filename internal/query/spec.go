// Package query defines the typed queries accepted by the stats
// engine and the ordered pipeline stages the stores interpret.
//
// Queries are built once at the boundary (HTTP handler, CLI flags) and
// passed by value. Malformed input never fails: every field falls back to its
// documented default.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// SortField selects the summary column a player page is ordered by.
type SortField string

const (
	SortPoints   SortField = "points"
	SortAssists  SortField = "assists"
	SortRebounds SortField = "rebounds"
	SortMinutes  SortField = "minutes"
	SortName     SortField = "name"
)

// ParseSortField reports whether s names a known sort field.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortPoints, SortAssists, SortRebounds, SortMinutes, SortName:
		return f, true
	}
	return SortPoints, false
}

// SortDir is ascending or descending.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// ParseSortDir reports whether s names a sort direction.
func ParseSortDir(s string) (SortDir, bool) {
	switch d := SortDir(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, true
	}
	return Desc, false
}

// PlayerQuery selects one page of player summaries.
type PlayerQuery struct {
	NameContains     string
	TeamEquals       string
	PositionContains string
	DateFrom         *time.Time
	DateTo           *time.Time
	Sort             SortField
	Dir              SortDir
	Page             int
	PageSize         int
}

// NewPlayerQuery returns a query with every default applied.
func NewPlayerQuery() PlayerQuery {
	return PlayerQuery{
		Sort:     SortPoints,
		Dir:      Desc,
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

// Normalize clamps paging and replaces unknown enum values with defaults.
// An unknown sort field resets the direction as well (points desc).
func (q PlayerQuery) Normalize() PlayerQuery {
	q.NameContains = strings.TrimSpace(q.NameContains)
	q.TeamEquals = strings.TrimSpace(q.TeamEquals)
	q.PositionContains = strings.TrimSpace(q.PositionContains)

	if f, ok := ParseSortField(string(q.Sort)); ok {
		q.Sort = f
		q.Dir, _ = ParseSortDir(string(q.Dir))
	} else {
		q.Sort, q.Dir = SortPoints, Desc
	}

	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = DefaultPageSize
	case q.PageSize < 1:
		q.PageSize = 1
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	return q
}

// Skip is the number of rows before the requested page.
func (q PlayerQuery) Skip() int {
	return (q.Page - 1) * q.PageSize
}

// CacheKey identifies the normalized query for response caching.
func (q PlayerQuery) CacheKey() string {
	return fmt.Sprintf("players:q=%s|team=%s|pos=%s|from=%s|to=%s|sort=%s|dir=%s|page=%d|size=%d",
		strings.ToLower(q.NameContains), strings.ToLower(q.TeamEquals), strings.ToLower(q.PositionContains),
		formatBound(q.DateFrom), formatBound(q.DateTo),
		q.Sort, q.Dir, q.Page, q.PageSize)
}

// PlayerQueryFromValues builds a normalized query from URL parameters:
// q, team, position, dateFrom, dateTo, sort, dir, page and pageSize (limit is
// accepted as an alias).
func PlayerQueryFromValues(v url.Values) PlayerQuery {
	q := NewPlayerQuery()
	q.NameContains = v.Get("q")
	q.TeamEquals = v.Get("team")
	q.PositionContains = v.Get("position")
	q.DateFrom = ParseDate(v.Get("dateFrom"))
	q.DateTo = ParseDate(v.Get("dateTo"))
	if s := v.Get("sort"); s != "" {
		q.Sort = SortField(s)
	}
	if d := v.Get("dir"); d != "" {
		q.Dir = SortDir(d)
	}
	q.Page = intOr(v.Get("page"), DefaultPage)

	size := v.Get("pageSize")
	if size == "" {
		size = v.Get("limit")
	}
	q.PageSize = intOr(size, DefaultPageSize)
	if q.PageSize < 1 {
		// explicit zero clamps like any other out-of-range size
		q.PageSize = 1
	}
	return q.Normalize()
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate parses a date bound in any accepted layout. Unparseable or empty
// input yields nil (no bound).
func ParseDate(s string) *time.Time {
	t, ok := ParseTime(s)
	if !ok {
		return nil
	}
	return &t
}

// ParseTime parses s in any accepted layout and returns it in UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func formatBound(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func intOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}
