// Package lock implements port.Locker: Redis-backed for multi-replica
// deployments and an in-process keyed mutex otherwise.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("lock")

const retryInterval = 50 * time.Millisecond

var (
	_ port.Locker = (*Redis)(nil)
	_ port.Locker = (*Local)(nil)
)

// ============================================================
// Redis
// ============================================================

// Redis obtains short-lived locks with bsm/redislock. A lock expires after
// ttl even if its holder dies.
type Redis struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis locker.
func NewRedis(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{
		client: redislock.New(rdb),
		prefix: "finbackend:lock:",
		ttl:    ttl,
		logger: logger,
	}
}

// Lock retries until the lock is obtained, ttl elapses, or ctx ends.
func (r *Redis) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	ctx, span := tracer.Start(ctx, "Redis.Lock")
	defer span.End()
	span.SetAttributes(attribute.String("lock.key", key))

	retries := int(r.ttl / retryInterval)
	l, err := r.client.Obtain(ctx, r.prefix+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryInterval), retries),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			r.logger.Warn("lock: not obtained", zap.String("key", key), zap.Duration("ttl", r.ttl))
			return nil, &domain.ErrTimeout{Operation: "lock " + key}
		}
		return nil, &domain.ErrExternalService{Service: "redis/lock", Err: err}
	}

	return func(ctx context.Context) error {
		if err := l.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.Warn("lock: release failed", zap.String("key", key), zap.Error(err))
			return err
		}
		return nil
	}, nil
}

// ============================================================
// In-process
// ============================================================

type keyLock struct {
	ch   chan struct{}
	refs int
}

// Local is a keyed mutex for a single process.
type Local struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewLocal creates an in-process locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx ends.
func (l *Local) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-kl.ch
			l.unref(key, kl)
		})
		return nil
	}, nil
}

func (l *Local) unref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
