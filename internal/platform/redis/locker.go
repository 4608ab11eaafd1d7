package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"sigcerh/pkg/platform/sentinel"
)

// Locker hands out distributed mutexes keyed by name. A held lock is
// refreshed every half ttl until it is released, so a holder may outlive ttl
// as long as its process keeps running.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  time.Duration
	wait   time.Duration
	prefix string
}

// NewLocker builds a Locker over rdb. Lock gives up after wait; a
// non-positive wait falls back to ttl.
func NewLocker(rdb redis.UniversalClient, ttl, wait time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if wait <= 0 {
		wait = ttl
	}
	return &Locker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  100 * time.Millisecond,
		wait:   wait,
		prefix: "sigcerh:lock:",
	}
}

// Lock blocks until key is held or the wait times out. The returned function
// stops the refresh and releases the lock.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.client.Obtain(waitCtx, l.prefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("obtain lock %s: %w", key, sentinel.ErrUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.refresh(context.WithoutCancel(ctx), lock, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			_ = lock.Release(context.WithoutCancel(ctx))
		})
	}, nil
}

// refresh extends the lock until stop is closed. It stops early when the lock
// was lost, since another holder may already own the key.
func (l *Locker) refresh(ctx context.Context, lock *redislock.Lock, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := lock.Refresh(ctx, l.ttl, nil); err != nil {
				return
			}
		}
	}
}
