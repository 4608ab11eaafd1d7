package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sigcerh/pkg/platform/sentinel"
)

// Locker serializes work on one key. The Redis locker in
// internal/platform/redis satisfies it across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// DefaultLockWait is used when no lock wait is configured.
const DefaultLockWait = 5 * time.Second

// KeyedMutex is the in-process Locker. Entries are dropped once nobody holds
// or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyEntry
	wait    time.Duration
}

type keyEntry struct {
	held chan struct{}
	refs int
}

// NewKeyedMutex builds a KeyedMutex whose Lock gives up after wait, or
// DefaultLockWait when wait is not positive.
func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &KeyedMutex{entries: make(map[string]*keyEntry), wait: wait}
}

// Lock waits for key until it is free, ctx is done or the configured wait
// passes. The last two return sentinel.ErrUnavailable.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	timer := time.NewTimer(k.wait)
	defer timer.Stop()

	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyEntry{held: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.held <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.held
				k.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, e)
		return nil, fmt.Errorf("lock %s: %w", key, sentinel.ErrUnavailable)
	case <-timer.C:
		k.release(key, e)
		return nil, fmt.Errorf("lock %s: waited %s: %w", key, k.wait, sentinel.ErrUnavailable)
	}
}

func (k *KeyedMutex) release(key string, e *keyEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}
