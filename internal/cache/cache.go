// Package cache keeps rendered API responses in memory, keyed by the
// normalized query, with weak ETags for conditional requests.
//
// Every write to the record store purges the cache and advances its
// generation. A response rendered from data read before a purge carries the
// old generation and is never stored.
package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

// TTLs per response family. Ingestion purges the cache, so these only bound
// staleness across processes that missed a notification.
const (
	TTLPlayers = 5 * time.Minute
	TTLSeries  = 5 * time.Minute
	TTLTeams   = 1 * time.Hour
)

const sweepInterval = 5 * time.Minute

// Generation counts purges. Read it with Lookup before loading fresh data
// and hand it back to Store.
type Generation uint64

type response struct {
	body    []byte
	etag    string
	expires time.Time
}

func (r response) live(now time.Time) bool {
	return now.Before(r.expires)
}

// Cache is safe for concurrent use. A disabled cache stores nothing but
// still computes ETags.
type Cache struct {
	mu        sync.RWMutex
	responses map[string]response
	gen       Generation
	enabled   bool

	hits      int
	misses    int
	discarded int
}

// New creates a cache; enabled=false yields a pass-through cache.
func New(enabled bool) *Cache {
	c := &Cache{
		responses: make(map[string]response),
		enabled:   enabled,
	}
	if enabled {
		go c.sweepLoop()
	}
	return c
}

// Lookup returns the live response under key. gen is the current generation,
// returned on hits and misses alike.
func (c *Cache) Lookup(key string) (body []byte, etag string, gen Generation, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen = c.gen
	if !c.enabled {
		return nil, "", gen, false
	}
	r, exists := c.responses[key]
	if !exists || !r.live(time.Now()) {
		c.misses++
		return nil, "", gen, false
	}
	c.hits++
	return r.body, r.etag, gen, true
}

// Store saves body under key for ttl unless the cache has been purged since
// gen was read. It returns the body's ETag either way.
func (c *Cache) Store(key string, body []byte, ttl time.Duration, gen Generation) string {
	etag := ETag(body)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.discarded++
		return etag
	}
	c.responses[key] = response{body: body, etag: etag, expires: time.Now().Add(ttl)}
	return etag
}

// Purge drops every response, advances the generation and returns how many
// responses were dropped.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.responses)
	clear(c.responses)
	c.gen++
	return n
}

// Stats reports key counts and hit/miss counters for the health endpoint.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	active := 0
	for _, r := range c.responses {
		if r.live(now) {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"total_keys":   len(c.responses),
		"active_keys":  active,
		"expired_keys": len(c.responses) - active,
		"purges":       int(c.gen),
		"hits":         c.hits,
		"misses":       c.misses,
		"discarded":    c.discarded,
	}
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.sweep(time.Now())
	}
}

// sweep deletes responses that expired before now.
func (c *Cache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, r := range c.responses {
		if !r.live(now) {
			delete(c.responses, key)
		}
	}
}

// ETag is the weak validator for body: a 64-bit FNV-1a digest.
func ETag(body []byte) string {
	h := fnv.New64a()
	h.Write(body)
	return fmt.Sprintf(`W/"%016x"`, h.Sum64())
}

// NotModified reports whether an If-None-Match header value matches etag.
// The header may list several validators; comparison is weak, so a W/
// prefix on either side is ignored.
func NotModified(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}
	return false
}
