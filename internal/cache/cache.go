// Package cache is a small in-process TTL store. Expiry is lazy: entries are
// only evicted when a Get observes them past their deadline. There is no size
// bound and no background sweep.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache maps string keys to values with a per-entry TTL. Safe for concurrent
// use; a Set racing another Set on the same key ends with one of the two
// values (last write wins). Callers composing Get-then-Set sequences get no
// atomicity across the pair: concurrent misses may each trigger a fetch.
type Cache struct {
	mu    sync.Mutex
	store map[string]entry
	now   func() time.Time
}

func New() *Cache {
	return &Cache{
		store: make(map[string]entry),
		now:   time.Now,
	}
}

// NewWithClock builds a cache with an injected clock.
func NewWithClock(now func() time.Time) *Cache {
	c := New()
	c.now = now
	return c
}

// Get returns the stored value for key. An entry at or past its deadline is
// evicted and reported absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.store, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, overwriting any previous entry, with a deadline
// of now + ttl.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}
