// Package cache holds the read-through caches behind port.Cache. Local
// serves a single process; Redis is shared by every replica.
package cache

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds a Local cache unless WithMaxEntries says otherwise.
const DefaultMaxEntries = 1024

type item[T any] struct {
	value    T
	storedAt time.Time
}

// Local keeps values in process memory until they are older than ttl. When
// full it drops the entry stored longest ago.
type Local[T any] struct {
	mu         sync.RWMutex
	items      map[string]item[T]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// Option tunes a Local cache.
type Option func(*options)

type options struct {
	maxEntries int
	now        func() time.Time
	sweepEvery time.Duration
}

// WithMaxEntries caps the number of stored keys.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSweepInterval sets how often expired keys are purged. Zero disables
// the sweeper; expired keys are then only dropped on read or eviction.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) { o.sweepEvery = d }
}

// New creates a Local cache. The sweeper runs every ttl by default.
func New[T any](ttl time.Duration, opts ...Option) *Local[T] {
	o := options{maxEntries: DefaultMaxEntries, now: time.Now, sweepEvery: ttl}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Local[T]{
		items:      make(map[string]item[T]),
		ttl:        ttl,
		maxEntries: o.maxEntries,
		now:        o.now,
		stop:       make(chan struct{}),
	}
	if o.sweepEvery > 0 {
		go c.sweep(o.sweepEvery)
	}
	return c
}

func (c *Local[T]) expired(it item[T], now time.Time) bool {
	return now.Sub(it.storedAt) >= c.ttl
}

// Get returns the value under key, or false when absent or stale.
func (c *Local[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.expired(it, c.now()) {
		var zero T
		return zero, false
	}
	return it.value, true
}

func (c *Local[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.items[key] = item[T]{value: value, storedAt: c.now()}
}

func (c *Local[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len reports the number of stored keys, stale ones included.
func (c *Local[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper. It is safe to call more than once.
func (c *Local[T]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Local[T]) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, it := range c.items {
		if oldestKey == "" || it.storedAt.Before(oldest) {
			oldestKey, oldest = k, it.storedAt
		}
	}
	delete(c.items, oldestKey)
}

func (c *Local[T]) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, it := range c.items {
		if c.expired(it, now) {
			delete(c.items, k)
		}
	}
}

func (c *Local[T]) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}
