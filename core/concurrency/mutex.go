// File: core/concurrency/mutex.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error-reporting mutex. The owner's invariant check runs on every lock and
// unlock while syncutil invariant checking is enabled.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/jacobsa/syncutil"
	"github.com/momentics/hioload-threads/api"
)

var _ api.Mutex = (*Mutex)(nil)

// Mutex is a non-reentrant lock with explicit destruction.
type Mutex struct {
	mu        syncutil.InvariantMutex
	held      atomic.Bool
	destroyed atomic.Bool
}

// NewMutex returns an unlocked mutex. check may be nil.
func NewMutex(check func()) *Mutex {
	if check == nil {
		check = func() {}
	}
	m := &Mutex{}
	m.mu = syncutil.NewInvariantMutex(check)
	return m
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() error {
	if m.destroyed.Load() {
		return ErrDestroyed
	}
	m.mu.Lock()
	if m.destroyed.Load() {
		m.mu.Unlock()
		return ErrDestroyed
	}
	m.held.Store(true)
	return nil
}

// Unlock releases the mutex. As with sync.Mutex, the mutex is not owned by a
// goroutine: any goroutine may unlock a locked mutex. ErrNotLocked reports an
// unlock of a mutex nobody holds.
func (m *Mutex) Unlock() error {
	if !m.held.CompareAndSwap(true, false) {
		return ErrNotLocked
	}
	m.mu.Unlock()
	return nil
}

// Destroy waits for the mutex to become free and invalidates it. Destroying
// a mutex the caller holds deadlocks.
func (m *Mutex) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed.Swap(true) {
		return ErrDestroyed
	}
	return nil
}

// Held reports whether some goroutine currently holds the mutex.
func (m *Mutex) Held() bool {
	return m.held.Load()
}

// locker adapts the mutex for sync.Cond, keeping the held flag accurate
// across Wait.
func (m *Mutex) locker() sync.Locker {
	return condLocker{m: m}
}

type condLocker struct {
	m *Mutex
}

func (l condLocker) Lock() {
	l.m.mu.Lock()
	l.m.held.Store(true)
}

func (l condLocker) Unlock() {
	l.m.held.Store(false)
	l.m.mu.Unlock()
}
