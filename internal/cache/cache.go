// Package cache provides a small in-memory TTL cache.
package cache

import (
	"sync"
	"time"
)

// NoExpiry as an age keeps an entry until it is deleted or cleared.
const NoExpiry time.Duration = -1

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means never
}

// Cache maps keys to values with an optional per-entry lifetime.
// Expired entries are evicted when read and swept on every Set.
type Cache[K comparable, V any] struct {
	maxItems int
	now      func() time.Time

	mu    sync.RWMutex
	items map[K]entry[V]
}

// Options contains configuration for creating a Cache.
type Options struct {
	MaxItems int              // 0 means unbounded
	Now      func() time.Time // Default: time.Now
}

// New creates an empty cache.
func New[K comparable, V any](opts Options) *Cache[K, V] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		maxItems: opts.MaxItems,
		now:      now,
		items:    make(map[K]entry[V]),
	}
}

// Set stores value under key for age. A negative age never expires.
func (c *Cache[K, V]) Set(key K, value V, age time.Duration) {
	e := entry[V]{value: value}
	if age >= 0 {
		e.expiresAt = c.now().Add(age)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked(c.now())
	c.items[key] = e
	if c.maxItems > 0 && len(c.items) > c.maxItems {
		c.evictLocked(key)
	}
}

// Get returns the value for key. An expired entry is removed and reported missing.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if e.expired(c.now()) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed it
		if cur, ok := c.items[key]; ok && cur.expired(c.now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Delete removes key. Missing keys are ignored.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// sweepLocked drops every expired entry.
func (c *Cache[K, V]) sweepLocked(now time.Time) {
	for k, e := range c.items {
		if e.expired(now) {
			delete(c.items, k)
		}
	}
}

// evictLocked drops expired entries first, then arbitrary ones other than keep.
func (c *Cache[K, V]) evictLocked(keep K) {
	now := c.now()
	for k, e := range c.items {
		if len(c.items) <= c.maxItems {
			return
		}
		if k != keep && e.expired(now) {
			delete(c.items, k)
		}
	}
	for k := range c.items {
		if len(c.items) <= c.maxItems {
			return
		}
		if k != keep {
			delete(c.items, k)
		}
	}
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
