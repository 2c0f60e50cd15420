package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// runGuard admits at most one batch cycle at a time
type runGuard struct {
	running atomic.Bool
}

func (g *runGuard) tryAcquire() bool {
	return g.running.CompareAndSwap(false, true)
}

func (g *runGuard) release() {
	g.running.Store(false)
}

// Running reports whether a cycle currently holds the guard
func (g *runGuard) Running() bool {
	return g.running.Load()
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// keyedMutex serialises work per user id
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refLock)}
}

// Lock blocks until the key is free and returns its unlock func
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
