// Package lock serializes the commands of a single player.
package lock

import (
	"context"
	"sync"
	"time"
)

// playerMutex wraps a mutex with reference counting for cleanup.
type playerMutex struct {
	mu       sync.Mutex
	refCount int
}

// PlayerLock hands out one mutex per player so that a player's guesses
// are applied in order while different players proceed in parallel.
type PlayerLock struct {
	locks sync.Map // map[int64]*playerMutex
	pool  sync.Pool
}

// NewPlayerLock creates a new PlayerLock instance.
func NewPlayerLock() *PlayerLock {
	return &PlayerLock{
		pool: sync.Pool{
			New: func() any {
				return &playerMutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for player.
func (pl *PlayerLock) getLock(player int64) *playerMutex {
	if v, ok := pl.locks.Load(player); ok {
		return v.(*playerMutex)
	}

	newLock := pl.pool.Get().(*playerMutex)
	newLock.refCount = 0

	// Another goroutine may have stored one first.
	actual, loaded := pl.locks.LoadOrStore(player, newLock)
	if loaded {
		pl.pool.Put(newLock)
	}
	return actual.(*playerMutex)
}

// Lock acquires the player's lock.
func (pl *PlayerLock) Lock(player int64) {
	lock := pl.getLock(player)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the player's lock.
func (pl *PlayerLock) Unlock(player int64) {
	if v, ok := pl.locks.Load(player); ok {
		lock := v.(*playerMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock acquires the lock without blocking, reporting success.
func (pl *PlayerLock) TryLock(player int64) bool {
	lock := pl.getLock(player)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// LockWithTimeout waits up to timeout for the lock, reporting success.
func (pl *PlayerLock) LockWithTimeout(ctx context.Context, player int64, timeout time.Duration) bool {
	lock := pl.getLock(player)

	done := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		lock.refCount++
		return true
	case <-timeoutCtx.Done():
		// The waiter still gets the lock eventually; hand it straight back.
		go func() {
			<-done
			lock.mu.Unlock()
		}()
		return false
	}
}

// WithLock runs fn while holding the player's lock.
func (pl *PlayerLock) WithLock(player int64, fn func() error) error {
	pl.Lock(player)
	defer pl.Unlock(player)
	return fn()
}

// WithLockContext runs fn while holding the player's lock, giving up with
// ErrLockTimeout if the lock is not acquired within timeout.
func (pl *PlayerLock) WithLockContext(ctx context.Context, player int64, timeout time.Duration, fn func() error) error {
	if !pl.LockWithTimeout(ctx, player, timeout) {
		return ErrLockTimeout
	}
	defer pl.Unlock(player)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}

// IsLocked reports whether the player's lock is currently held.
// The answer may be stale as soon as it is returned.
func (pl *PlayerLock) IsLocked(player int64) bool {
	if v, ok := pl.locks.Load(player); ok {
		lock := v.(*playerMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}
