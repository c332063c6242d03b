// Package plan holds the session-scoped candidate cache and the allocation
// adjuster that resolves batches of move requests against it.
package plan

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

// CacheKey identifies one reusable candidate computation. The requested start
// date is deliberately excluded: the candidate set spans the whole evaluation
// window, so one computation serves every move sharing crop, variety, field
// and window end.
type CacheKey struct {
	CropID    string
	Variety   string
	FieldID   string
	WindowEnd time.Time
}

// NewCacheKey derives the cache key for a move, normalizing the window end so
// that equal days always collide.
func NewCacheKey(mv agro.Move) CacheKey {
	return CacheKey{
		CropID:    mv.CropID,
		Variety:   mv.Variety,
		FieldID:   mv.FieldID,
		WindowEnd: agro.Day(mv.Window.End),
	}
}

func (k CacheKey) String() string {
	return k.CropID + "|" + k.Variety + "|" + k.FieldID + "|" + agro.DayKey(k.WindowEnd)
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// CandidateCache memoizes candidate sets per key for the duration of one
// adjustment session. Entries are created once and never altered or expired;
// a new session starts with a fresh cache.
//
// Concurrent requests for an uncached key share a single computation: the
// first caller runs compute, the rest wait on it and share the result. A
// failed computation is propagated to every waiter, is never stored, and a
// later call may retry.
type CandidateCache struct {
	mu      sync.RWMutex
	entries map[CacheKey][]agro.CandidatePeriod

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCandidateCache creates an empty session cache.
func NewCandidateCache() *CandidateCache {
	return &CandidateCache{
		entries: make(map[CacheKey][]agro.CandidatePeriod),
	}
}

// ComputeFunc produces the candidate set for a key on a cache miss. It must
// be a pure function of the key's underlying weather series and crop profile.
type ComputeFunc func(ctx context.Context) ([]agro.CandidatePeriod, error)

// GetOrCompute returns the cached candidate set for key, running compute at
// most once per key across concurrent callers. A call that ran compute counts
// as a miss; a call served from the map or from a shared in-flight
// computation counts as a hit.
func (c *CandidateCache) GetOrCompute(ctx context.Context, key CacheKey, compute ComputeFunc) ([]agro.CandidatePeriod, error) {
	if cached, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return cached, nil
	}

	var ran bool
	result, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A previous flight may have populated the entry between our lookup
		// and acquiring the flight.
		if cached, ok := c.lookup(key); ok {
			return cached, nil
		}

		ran = true
		candidates, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = candidates
		c.mu.Unlock()
		return candidates, nil
	})

	if ran {
		c.misses.Add(1)
	} else {
		c.hits.Add(1)
	}
	if err != nil {
		return nil, err
	}
	return result.([]agro.CandidatePeriod), nil
}

func (c *CandidateCache) lookup(key CacheKey) ([]agro.CandidatePeriod, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.entries[key]
	return cached, ok
}

// Stats returns a snapshot of the cache counters.
func (c *CandidateCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()

	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}
}
