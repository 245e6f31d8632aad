package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/hoopstats/internal/cache"
	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
)

// SeriesResponse is the body of the time series endpoint.
type SeriesResponse struct {
	PlayerID string              `json:"playerId"`
	Metric   query.Metric        `json:"metric"`
	Window   int                 `json:"window"`
	Series   []model.SeriesPoint `json:"series"`
}

// TeamsResponse is the body of the distinct teams endpoint.
type TeamsResponse struct {
	Teams []string `json:"teams"`
}

// ListPlayers returns one page of aggregated player summaries.
// @Summary List player summaries
// @Description Aggregates each player's StatLines (optionally within a date range), filters, sorts and paginates. Malformed parameters fall back to defaults.
// @Tags players
// @Produce json
// @Param q query string false "Case-insensitive substring of the player name"
// @Param team query string false "Exact team name, case-insensitive"
// @Param position query string false "Case-insensitive substring of the position"
// @Param dateFrom query string false "Inclusive lower bound on game date (YYYY-MM-DD or RFC 3339)"
// @Param dateTo query string false "Inclusive upper bound on game date (YYYY-MM-DD or RFC 3339)"
// @Param sort query string false "Sort field" Enums(points, assists, rebounds, minutes, name)
// @Param dir query string false "Sort direction" Enums(asc, desc)
// @Param page query int false "Page number, from 1"
// @Param pageSize query int false "Page size, 1 to 50 (alias: limit)"
// @Success 200 {object} model.PlayerPage
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	q := query.PlayerQueryFromValues(r.URL.Query())
	h.serveCached(w, r, q.CacheKey(), cache.TTLPlayers, func(ctx context.Context) (interface{}, error) {
		return h.engine.QueryPlayers(ctx, q)
	})
}

// GetPlayerSeries returns a player's per-game series for one metric.
// @Summary Player time series
// @Description Returns the player's games in date order with the chosen metric, optionally smoothed by a trailing moving average. An unknown player yields an empty series.
// @Tags players
// @Produce json
// @Param id path string true "Player ID"
// @Param metric query string false "Metric" Enums(points, assists, rebounds, minutes)
// @Param window query int false "Moving average window" Enums(0, 5, 10)
// @Success 200 {object} SeriesResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/players/{id}/timeseries [get]
func (h *Handler) GetPlayerSeries(w http.ResponseWriter, r *http.Request) {
	q := query.SeriesQueryFromValues(chi.URLParam(r, "id"), r.URL.Query())
	h.serveCached(w, r, q.CacheKey(), cache.TTLSeries, func(ctx context.Context) (interface{}, error) {
		points, err := h.engine.PlayerSeries(ctx, q)
		if err != nil {
			return nil, err
		}
		return SeriesResponse{
			PlayerID: q.PlayerID,
			Metric:   q.Metric,
			Window:   q.Window,
			Series:   points,
		}, nil
	})
}

// ListTeams returns every distinct team name, sorted.
// @Summary Distinct team names
// @Description Returns the sorted set of team names.
// @Tags teams
// @Produce json
// @Success 200 {object} TeamsResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/teams/distinct [get]
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "teams:distinct", cache.TTLTeams, func(ctx context.Context) (interface{}, error) {
		names, err := h.engine.TeamNames(ctx)
		if err != nil {
			return nil, err
		}
		return TeamsResponse{Teams: names}, nil
	})
}
