// Package cache keeps query results in memory for a limited time, the way
// the views want them: fetched once, reused while fresh, dropped wholesale
// when the session ends.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	fetchedAt time.Time
}

// QueryCache is safe for concurrent use.
type QueryCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	generation uint64
	group      singleflight.Group
	now        func() time.Time
}

func New() *QueryCache {
	return &QueryCache{entries: make(map[string]entry), now: time.Now}
}

// Get returns the cached value for key if it is younger than staleTime.
func (c *QueryCache) Get(key string, staleTime time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= staleTime {
		return nil, false
	}
	return e.value, true
}

func (c *QueryCache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, fetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops one key.
func (c *QueryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops everything. Fetches already in flight will not store their
// results.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.generation++
	c.mu.Unlock()
}

func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch returns the fresh cached value or calls fn once for all concurrent
// callers of the same key and caches its result. Errors are not cached.
func (c *QueryCache) Fetch(ctx context.Context, key string, staleTime time.Duration, fn func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key, staleTime); ok {
		return v, nil
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = entry{value: v, fetchedAt: c.now()}
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}
