// Package cache provides a small time-boxed LRU cache.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL is an LRU cache whose entries expire a fixed time after being set.
type TTL[K comparable, V any] struct {
	mu    sync.Mutex
	items *lru.Cache[K, entry[V]]
	ttl   time.Duration
	now   func() time.Time
}

// New creates a cache holding at most size entries for ttl each.
func New[K comparable, V any](size int, ttl time.Duration) (*TTL[K, V], error) {
	items, err := lru.New[K, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTL[K, V]{items: items, ttl: ttl, now: time.Now}, nil
}

// SetClock replaces the time source.
func (c *TTL[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the value for key if it was set less than ttl ago.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.items.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Add(key, entry[V]{value: value, storedAt: c.now()})
}

// Invalidate drops key.
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(key)
}

// Clear removes all entries from the cache.
func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
}
