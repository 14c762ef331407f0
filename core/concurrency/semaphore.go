// File: core/concurrency/semaphore.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Counting semaphore on top of golang.org/x/sync/semaphore.
//
// The weighted semaphore counts permits in use, so a value v out of max is
// represented by holding max-v permits. value tracks posted-but-unconsumed
// signals and is raised before a release and lowered after an acquire, which
// keeps it at or above the permits actually available and makes every
// release safe.

package concurrency

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/momentics/hioload-threads/api"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// DefaultSemaphoreMax bounds semaphores created with a zero maximum.
const DefaultSemaphoreMax = math.MaxInt32

var _ api.Semaphore = (*Semaphore)(nil)

// Semaphore is a counting signal between goroutines.
type Semaphore struct {
	w     *semaphore.Weighted
	max   int64
	value atomic.Int64

	// closed is cancelled by Destroy to release blocked waiters.
	closed context.Context
	close  context.CancelFunc
}

// NewSemaphore creates a semaphore holding initial signals. max <= 0 selects
// DefaultSemaphoreMax.
func NewSemaphore(initial, max int64) (*Semaphore, error) {
	if max <= 0 {
		max = DefaultSemaphoreMax
	}
	if initial < 0 || initial > max {
		return nil, errors.Wrapf(ErrInvalidSemaphore, "initial %d, max %d", initial, max)
	}
	s := &Semaphore{
		w:   semaphore.NewWeighted(max),
		max: max,
	}
	if !s.w.TryAcquire(max - initial) {
		return nil, errors.Wrap(ErrInvalidSemaphore, "could not reserve permits")
	}
	s.value.Store(initial)
	s.closed, s.close = context.WithCancel(context.Background())
	return s, nil
}

// Wait blocks until a signal is available, ctx is done or the semaphore is
// destroyed.
func (s *Semaphore) Wait(ctx context.Context) error {
	if s.closed.Err() != nil {
		return ErrDestroyed
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.closed, cancel)
	defer stop()

	if err := s.w.Acquire(ctx, 1); err != nil {
		if s.closed.Err() != nil {
			return ErrDestroyed
		}
		return err
	}
	s.value.Add(-1)
	return nil
}

// TryWait consumes a signal without blocking.
func (s *Semaphore) TryWait() bool {
	if s.closed.Err() != nil {
		return false
	}
	if !s.w.TryAcquire(1) {
		return false
	}
	s.value.Add(-1)
	return true
}

// Post adds a signal, waking one waiter.
func (s *Semaphore) Post() error {
	if s.closed.Err() != nil {
		return ErrDestroyed
	}
	for {
		v := s.value.Load()
		if v >= s.max {
			return ErrSemaphoreOverflow
		}
		if s.value.CompareAndSwap(v, v+1) {
			break
		}
	}
	s.w.Release(1)
	return nil
}

// Value returns the number of pending signals.
func (s *Semaphore) Value() int64 {
	return s.value.Load()
}

// Destroy invalidates the semaphore and fails every blocked Wait.
func (s *Semaphore) Destroy() error {
	if s.closed.Err() != nil {
		return ErrDestroyed
	}
	s.close()
	return nil
}
