// Package cache provides a time-bounded memo with stale-on-failure fallback.
//
// A read returns the stored value while it is younger than the TTL. Once it
// ages out the fetch function runs again; if that fetch fails the previous
// value is served regardless of its age, so a flaky remote degrades into old
// data instead of an error.
package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoValue is returned when a fetch fails and nothing was ever cached
var ErrNoValue = errors.New("no cached value")

// Result classifies how a lookup was served
type Result string

const (
	ResultHit   Result = "hit"
	ResultMiss  Result = "miss"
	ResultStale Result = "stale"
	ResultError Result = "error"
)

// Observer receives one callback per lookup
type Observer func(key string, result Result)

type entry[V any] struct {
	stored time.Time
	value  V
}

// TTL is a keyed cache. Keys come from a small fixed vocabulary so entries
// are only ever overwritten, never evicted.
type TTL[V any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	entries  map[string]entry[V] // Protected by mu
	now      func() time.Time
	observer Observer
}

// New creates a cache whose entries stay fresh for ttl
func New[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// WithClock replaces the time source
func (c *TTL[V]) WithClock(now func() time.Time) *TTL[V] {
	c.now = now
	return c
}

// WithObserver installs a lookup observer
func (c *TTL[V]) WithObserver(o Observer) *TTL[V] {
	c.observer = o
	return c
}

// TTL returns the freshness window
func (c *TTL[V]) TTL() time.Duration {
	return c.ttl
}

// GetOrFetch returns the live value for key or refreshes it with fetch.
// The lock is held across fetch so concurrent callers never refresh the
// same key twice.
func (c *TTL[V]) GetOrFetch(key string, fetch func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	prev, ok := c.entries[key]
	if ok && now.Sub(prev.stored) < c.ttl {
		c.observe(key, ResultHit)
		return prev.value, nil
	}

	value, err := fetch()
	if err == nil {
		c.entries[key] = entry[V]{stored: now, value: value}
		c.observe(key, ResultMiss)
		return value, nil
	}

	if ok {
		c.observe(key, ResultStale)
		return prev.value, nil
	}

	c.observe(key, ResultError)
	var zero V
	return zero, fmt.Errorf("%w for %q: %v", ErrNoValue, key, err)
}

// Peek returns the stored value and its timestamp without fetching
func (c *TTL[V]) Peek(key string) (V, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return e.value, e.stored, ok
}

// Invalidate drops key so the next read fetches
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored keys
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[V]) observe(key string, r Result) {
	if c.observer != nil {
		c.observer(key, r)
	}
}
