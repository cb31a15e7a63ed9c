package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	tenant, id := uuid.New(), uuid.New()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "route", tenant, id, func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			if err != nil {
				t.Errorf("WithLock: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInside)
	}
	if len(l.locks) != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", len(l.locks))
	}
}

func TestLocalLockerHonorsContext(t *testing.T) {
	l := NewLocalLocker()
	tenant, id := uuid.New(), uuid.New()

	held := make(chan struct{})
	release := make(chan struct{})
	go l.WithLock(context.Background(), "order", tenant, id, func(context.Context) error {
		close(held)
		<-release
		return nil
	})
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.WithLock(ctx, "order", tenant, id, func(context.Context) error { return nil })
	close(release)

	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestLocalLockerDistinctKeysDoNotBlock(t *testing.T) {
	l := NewLocalLocker()
	tenant := uuid.New()

	done := make(chan struct{})
	err := l.WithLock(context.Background(), "route", tenant, uuid.New(), func(ctx context.Context) error {
		return l.WithLock(ctx, "route", tenant, uuid.New(), func(context.Context) error {
			close(done)
			return nil
		})
	})
	if err != nil {
		t.Fatalf("WithLock: %v", err)
	}
	<-done
}
