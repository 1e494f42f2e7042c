package cache

import (
	"sync"
	"time"

	"github.com/smallbiznis/invoicegen/internal/clock"
)

// Cache is the read-through cache used for per-user settings lookups.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

// sweepEvery is the number of writes between expired-entry sweeps.
const sweepEvery = 64

type entry[V any] struct {
	value   V
	expires time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// TTLCache keeps entries in process memory. A zero TTL never expires.
type TTLCache[K comparable, V any] struct {
	clock clock.Clock

	mu     sync.RWMutex
	items  map[K]entry[V]
	writes int
}

// NewTTLCache reads expiry against c, or the system clock when c is nil.
func NewTTLCache[K comparable, V any](c clock.Clock) *TTLCache[K, V] {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &TTLCache[K, V]{clock: c, items: make(map[K]entry[V])}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if e.expired(c.clock.Now()) {
		c.Delete(key)
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	now := c.clock.Now()
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = e
	c.writes++
	if c.writes%sweepEvery == 0 {
		for k, existing := range c.items {
			if existing.expired(now) {
				delete(c.items, k)
			}
		}
	}
}

func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet swept.
func (c *TTLCache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// NoopCache never stores anything. It is the settings fallback when no
// cache is wired.
type NoopCache[K comparable, V any] struct{}

func (NoopCache[K, V]) Get(K) (V, bool) {
	var zero V
	return zero, false
}

func (NoopCache[K, V]) Set(K, V, time.Duration) {}

func (NoopCache[K, V]) Delete(K) {}
