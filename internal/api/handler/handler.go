// Package handler provides HTTP handlers for all API endpoints.
// Read handlers go through the stats engine and cache their JSON bodies with
// an ETag; write handlers go through the ingest upserter and purge the cache.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/albapepper/hoopstats/internal/api/respond"
	"github.com/albapepper/hoopstats/internal/cache"
	"github.com/albapepper/hoopstats/internal/config"
	"github.com/albapepper/hoopstats/internal/ingest"
	"github.com/albapepper/hoopstats/internal/stats"
)

// Store is the part of the Record Store the health checks use.
type Store interface {
	Driver() string
	Ping(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store    Store
	engine   *stats.Engine
	upserter *ingest.Upserter
	cache    *cache.Cache
	cfg      *config.Config
}

// New creates a Handler with shared dependencies.
func New(store Store, engine *stats.Engine, upserter *ingest.Upserter, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		store:    store,
		engine:   engine,
		upserter: upserter,
		cache:    c,
		cfg:      cfg,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the active store driver.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Hoopstats API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"store":   h.store.Driver(),
		"endpoints": []string{
			"/api/v1/players",
			"/api/v1/players/{id}/timeseries",
			"/api/v1/teams/distinct",
			"/api/v1/upload",
			"/api/v1/seed",
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies store connectivity.
// @Summary Store health check
// @Description Verifies the Record Store is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := h.store.Ping(r.Context())
	latency := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"driver":    h.store.Driver(),
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"database":   "connected",
		"driver":     h.store.Driver(),
		"latency_ms": latency,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys, purges).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// serveCached answers from the cache when it can; otherwise it builds the
// body with load, caches it under key, and writes it. A body loaded across a
// purge is served but not cached.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, load func(context.Context) (interface{}, error)) {
	data, etag, gen, ok := h.cache.Lookup(key)
	if ok {
		if cache.NotModified(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := load(r.Context())
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	data, err = json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", "Failed to encode response")
		return
	}

	etag = h.cache.Store(key, data, ttl, gen)
	if cache.NotModified(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

func (h *Handler) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		respond.WriteError(w, http.StatusGatewayTimeout, "TIMEOUT", "Query timed out")
	case errors.Is(err, context.Canceled):
		respond.WriteError(w, http.StatusServiceUnavailable, "CANCELLED", "Request cancelled")
	default:
		var qe *stats.QueryExecutionError
		msg := "Query failed"
		if errors.As(err, &qe) {
			msg = "Query failed: " + qe.Op
		}
		if h.cfg.Debug {
			respond.WriteErrorDetail(w, http.StatusInternalServerError, "QUERY_FAILED", msg, err.Error())
			return
		}
		respond.WriteError(w, http.StatusInternalServerError, "QUERY_FAILED", msg)
	}
}
