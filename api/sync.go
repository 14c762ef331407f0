// File: api/sync.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Contracts of the synchronization and threading primitives the pool is
// built on. Every operation reports failure through an error.

package api

import "context"

// Mutex is a non-reentrant lock. Like sync.Mutex it has no owner, so Unlock
// need not come from the goroutine that locked it.
type Mutex interface {
	Lock() error
	Unlock() error
	Destroy() error
}

// Cond is a condition variable bound to a Mutex. Wait may return without a
// matching Signal or Broadcast, so callers always re-check their predicate.
type Cond interface {
	Wait() error
	Signal() error
	Broadcast() error
	Destroy() error
}

// Semaphore is a counting signal.
type Semaphore interface {
	Wait(ctx context.Context) error
	TryWait() bool
	Post() error
	Destroy() error
}

// ThreadFunc is the entry point of a kernel thread.
type ThreadFunc func(arg any) any

// Thread is a handle on a running kernel thread.
type Thread interface {
	// Join blocks until the entry point returns and yields its result.
	Join() (any, error)
	Detach() error
	ID() int
}
