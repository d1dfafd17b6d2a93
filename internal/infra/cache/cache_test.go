package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/infra/cache"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ port.Cache[[]string] = (*cache.Local[[]string])(nil)
var _ port.Cache[[]string] = (*cache.Redis[[]string])(nil)

// fakeClock is advanced by hand so expiry is deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
}

func TestLocal_SetAndGet(t *testing.T) {
	c := cache.New[[]string](5*time.Minute, cache.WithSweepInterval(0))
	defer c.Close()

	c.Set("client_names:1", []string{"Acme", "Bridge Deal"})
	val, ok := c.Get("client_names:1")
	require.True(t, ok)
	assert.Equal(t, []string{"Acme", "Bridge Deal"}, val)

	_, ok = c.Get("client_names:2")
	assert.False(t, ok)
}

func TestLocal_ExpiresAfterTTL(t *testing.T) {
	clock := newClock()
	c := cache.New[string](time.Minute, cache.WithClock(clock.Now), cache.WithSweepInterval(0))
	defer c.Close()

	c.Set("k", "v")
	clock.Advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestLocal_EvictsOldestWhenFull(t *testing.T) {
	clock := newClock()
	c := cache.New[int](time.Hour, cache.WithClock(clock.Now), cache.WithMaxEntries(2), cache.WithSweepInterval(0))
	defer c.Close()

	c.Set("a", 1)
	clock.Advance(time.Second)
	c.Set("b", 2)
	clock.Advance(time.Second)
	c.Set("a", 10) // overwrite does not evict
	assert.Equal(t, 2, c.Len())

	clock.Advance(time.Second)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok, "b was stored longest ago")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestLocal_SweeperPurgesExpired(t *testing.T) {
	c := cache.New[string](20*time.Millisecond, cache.WithSweepInterval(10*time.Millisecond))
	defer c.Close()

	c.Set("k", "v")
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLocal_Delete(t *testing.T) {
	c := cache.New[string](time.Minute, cache.WithSweepInterval(0))
	defer c.Close()

	c.Set("k", "v")
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLocal_CloseTwice(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
