package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

func (e entry[V]) expired(at time.Time) bool {
	return !e.expiresAt.IsZero() && at.After(e.expiresAt)
}

// SimpleCache is a mutex-guarded map with per-entry TTL. Expired entries are
// hidden on read and dropped by PurgeExpired or the janitor.
type SimpleCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
}

func NewSimpleCache[K comparable, V any]() *SimpleCache[K, V] {
	return &SimpleCache[K, V]{items: make(map[K]entry[V])}
}

// now is a small indirection to allow test stubbing if needed.
var now = time.Now

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now().Add(ttl)
}

func (c *SimpleCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.items[key]
	if !ok || e.expired(now()) {
		return zero, false
	}
	return e.value, true
}

func (c *SimpleCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, expiresAt: expiry(ttl)}
}

func (c *SimpleCache[K, V]) GetOrCreate(key K, ttl time.Duration, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || e.expired(now()) {
		e = entry[V]{value: create()}
	}
	e.expiresAt = expiry(ttl)
	c.items[key] = e
	return e.value
}

func (c *SimpleCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *SimpleCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts := now()
	count := 0
	for _, e := range c.items {
		if !e.expired(ts) {
			count++
		}
	}
	return count
}

func (c *SimpleCache[K, V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := now()
	dropped := 0
	for k, e := range c.items {
		if e.expired(ts) {
			delete(c.items, k)
			dropped++
		}
	}
	return dropped
}

// RunJanitor purges expired entries every interval until ctx is done.
func (c *SimpleCache[K, V]) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PurgeExpired()
		}
	}
}

// Ensure SimpleCache implements Cache at compile time.
var _ Cache[string, int] = (*SimpleCache[string, int])(nil)
