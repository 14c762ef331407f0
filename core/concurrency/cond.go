// File: core/concurrency/cond.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Condition variable bound to a Mutex at creation.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-threads/api"
)

var _ api.Cond = (*Cond)(nil)

// Cond wakes goroutines waiting for a predicate guarded by its Mutex.
type Cond struct {
	m         *Mutex
	c         *sync.Cond
	destroyed atomic.Bool
}

// NewCond creates a condition variable over m.
func NewCond(m *Mutex) (*Cond, error) {
	if m == nil {
		return nil, ErrNilMutex
	}
	if m.destroyed.Load() {
		return nil, ErrDestroyed
	}
	return &Cond{m: m, c: sync.NewCond(m.locker())}, nil
}

// Wait atomically releases the mutex and blocks until woken, then
// re-acquires it. The mutex is held on return even when an error is
// reported, so callers always unlock.
func (c *Cond) Wait() error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	if !c.m.held.Load() {
		return ErrNotLocked
	}
	c.c.Wait()
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	return nil
}

// Signal wakes at most one waiter.
func (c *Cond) Signal() error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	c.c.Signal()
	return nil
}

// Broadcast wakes every waiter.
func (c *Cond) Broadcast() error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	c.c.Broadcast()
	return nil
}

// Destroy invalidates the condition variable. Goroutines still waiting are
// woken and their Wait reports ErrDestroyed. The caller must not hold the
// mutex.
func (c *Cond) Destroy() error {
	l := c.m.locker()
	l.Lock()
	defer l.Unlock()
	if c.destroyed.Swap(true) {
		return ErrDestroyed
	}
	c.c.Broadcast()
	return nil
}
