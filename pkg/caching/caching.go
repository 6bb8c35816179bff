package caching

import (
	"sync"
	"time"
)

// Cache is an in-memory map whose entries go stale after a TTL. Stale
// entries are kept until overwritten so callers can still Peek at them.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// NewCache creates a new Cache instance.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// WithClock replaces time.Now, for tests.
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.now = now
	return c
}

// Get retrieves an item from the cache.
// It returns the value, when it was stored and true if the item is found
// and not expired.
func (c *Cache[V]) Get(key string) (V, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, time.Time{}, false // Cache miss
	}

	// Check if expired
	if c.now().Sub(e.storedAt) > c.ttl {
		var zero V
		return zero, time.Time{}, false // Cache miss (expired)
	}

	return e.value, e.storedAt, true // Cache hit
}

// Peek returns an entry regardless of age.
func (c *Cache[V]) Peek(key string) (V, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.value, e.storedAt, ok
}

// Set adds an item to the cache, stamped now.
func (c *Cache[V]) Set(key string, value V) {
	c.SetAt(key, value, c.now())
}

// SetAt adds an item with an explicit timestamp, e.g. when restoring
// persisted values that are already partly aged.
func (c *Cache[V]) SetAt(key string, value V, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: storedAt}
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, stale or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the freshness window.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}
