package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/infra/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_MutualExclusion(t *testing.T) {
	l := lock.NewLocal()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), "acme")
			require.NoError(t, err)
			defer release(context.Background())

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := lock.NewLocal()

	releaseA, err := l.Lock(context.Background(), "acme")
	require.NoError(t, err)
	defer releaseA(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	releaseB, err := l.Lock(ctx, "bridge")
	require.NoError(t, err)
	require.NoError(t, releaseB(context.Background()))
}

func TestLocal_ContextCancel(t *testing.T) {
	l := lock.NewLocal()

	release, err := l.Lock(context.Background(), "acme")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "acme")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Releasing twice is harmless and the key is usable again.
	require.NoError(t, release(context.Background()))
	require.NoError(t, release(context.Background()))
	again, err := l.Lock(context.Background(), "acme")
	require.NoError(t, err)
	require.NoError(t, again(context.Background()))
}
