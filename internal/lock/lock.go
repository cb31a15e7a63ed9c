// Package lock serializes work on one aggregate across goroutines or, with the
// redis driver, across server instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultTTL = 10 * time.Second

// Locker runs fn while holding the lock named by kind, tenant and id.
type Locker interface {
	WithLock(ctx context.Context, kind string, tenantID, id uuid.UUID, fn func(ctx context.Context) error) error
}

func key(kind string, tenantID, id uuid.UUID) string {
	return fmt.Sprintf("lock:%s:%s:%s", kind, tenantID, id)
}

// LocalLocker is an in-process keyed mutex.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*entry)}
}

func (l *LocalLocker) WithLock(ctx context.Context, kind string, tenantID, id uuid.UUID, fn func(ctx context.Context) error) error {
	k := key(kind, tenantID, id)

	l.mu.Lock()
	e, ok := l.locks[k]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[k] = e
	}
	e.refs++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, k)
		}
		l.mu.Unlock()
	}()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.ch }()

	return fn(ctx)
}

// RedisLocker obtains a redislock lease, retrying briefly before giving up
// with a ConflictError.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *RedisLocker) WithLock(ctx context.Context, kind string, tenantID, id uuid.UUID, fn func(ctx context.Context) error) error {
	k := key(kind, tenantID, id)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30),
	}

	lease, err := l.client.Obtain(ctx, k, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return domain.NewConflictError("%s %s is busy, retry later", kind, id)
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", k, err)
	}
	defer func() {
		if err := lease.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("lock", k).Msg("failed to release lock")
		}
	}()

	return fn(ctx)
}
