// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDestroyed indicates the primitive has been destroyed.
	ErrDestroyed = errors.New("primitive destroyed")

	// ErrNotLocked indicates an unlock or wait without holding the mutex.
	ErrNotLocked = errors.New("mutex not locked")

	// ErrNilMutex indicates a condition variable created without a mutex.
	ErrNilMutex = errors.New("nil mutex")

	// ErrSemaphoreOverflow indicates a post beyond the semaphore maximum.
	ErrSemaphoreOverflow = errors.New("semaphore value at maximum")

	// ErrInvalidSemaphore indicates initial/maximum values out of range.
	ErrInvalidSemaphore = errors.New("invalid semaphore bounds")

	// ErrNilEntry indicates a thread or fiber created without an entry point.
	ErrNilEntry = errors.New("nil entry point")

	// ErrThreadDetached indicates a join or detach of a detached thread.
	ErrThreadDetached = errors.New("thread is detached")

	// ErrThreadJoined indicates a join or detach of an already joined thread.
	ErrThreadJoined = errors.New("thread already joined")

	// ErrFiber* indicate misuse of a fiber context.
	ErrFiberForeign  = errors.New("fiber belongs to another context")
	ErrFiberDeleted  = errors.New("fiber deleted")
	ErrFiberFinished = errors.New("fiber finished")
	ErrFiberRunning  = errors.New("fiber is running")
	ErrFiberMain     = errors.New("main fiber cannot be deleted")

	// ErrPanic is wrapped by every PanicError.
	ErrPanic = errors.New("recovered panic")
)

// PanicError carries a value recovered from a panicking entry point.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrPanic
}
