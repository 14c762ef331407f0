// File: core/concurrency/thread.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Kernel threads. Each Thread runs its entry point on a goroutine locked to a
// dedicated OS thread for its whole life. The lock is never released, so the
// runtime terminates the OS thread when the entry returns, together with any
// affinity mask applied to it.

package concurrency

import (
	"runtime"
	"sync/atomic"

	"github.com/momentics/hioload-threads/affinity"
	"github.com/momentics/hioload-threads/api"
	"github.com/pkg/errors"
)

var _ api.Thread = (*Thread)(nil)

const (
	threadJoinable int32 = iota
	threadDetached
	threadJoined
)

// ThreadAttr configures CreateThread.
type ThreadAttr struct {
	// Name labels the thread in errors.
	Name string
	// Detached threads cannot be joined.
	Detached bool
	// CPU pins the thread to a logical CPU; negative leaves it unpinned.
	CPU int
	// StrictAffinity makes a pinning failure fail CreateThread.
	StrictAffinity bool
}

// DefaultThreadAttr returns a joinable, unpinned attribute set.
func DefaultThreadAttr() *ThreadAttr {
	return &ThreadAttr{CPU: -1}
}

// Thread is a handle on a running kernel thread.
type Thread struct {
	name  string
	id    int
	state atomic.Int32
	done  chan struct{}

	// Written by the thread before done is closed.
	result      any
	err         error
	affinityErr error
}

// CreateThread starts entry(arg) on a new OS thread and returns once the
// thread is running. A nil attr selects DefaultThreadAttr.
func CreateThread(entry api.ThreadFunc, arg any, attr *ThreadAttr) (*Thread, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}
	if attr == nil {
		attr = DefaultThreadAttr()
	}
	t := &Thread{
		name: attr.Name,
		done: make(chan struct{}),
	}
	if attr.Detached {
		t.state.Store(threadDetached)
	}

	started := make(chan error, 1)
	go t.run(entry, arg, attr, started)
	if err := <-started; err != nil {
		return nil, errors.Wrapf(err, "thread %q failed to start", attr.Name)
	}
	return t, nil
}

func (t *Thread) run(entry api.ThreadFunc, arg any, attr *ThreadAttr, started chan<- error) {
	runtime.LockOSThread()
	defer close(t.done)

	t.id = affinity.CurrentThreadID()
	if attr.CPU >= 0 {
		if err := affinity.SetAffinity(attr.CPU); err != nil {
			if attr.StrictAffinity {
				t.err = err
				started <- err
				return
			}
			t.affinityErr = err
		}
	}
	started <- nil

	t.err = CallRecover(func() error {
		t.result = entry(arg)
		return nil
	})
}

// Join blocks until the entry point returns and yields its result. A panic in
// the entry point is reported as a *PanicError.
func (t *Thread) Join() (any, error) {
	if !t.state.CompareAndSwap(threadJoinable, threadJoined) {
		return nil, t.stateErr()
	}
	<-t.done
	return t.result, t.err
}

// Detach releases the handle; the thread keeps running and cannot be joined.
func (t *Thread) Detach() error {
	if !t.state.CompareAndSwap(threadJoinable, threadDetached) {
		return t.stateErr()
	}
	return nil
}

func (t *Thread) stateErr() error {
	if t.state.Load() == threadDetached {
		return ErrThreadDetached
	}
	return ErrThreadJoined
}

// ID returns the kernel thread id, or -1 where the platform has none.
func (t *Thread) ID() int {
	return t.id
}

// Name returns the name given in ThreadAttr.
func (t *Thread) Name() string {
	return t.name
}

// Done is closed when the entry point has returned.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// AffinityErr reports a non-strict pinning failure, nil otherwise.
func (t *Thread) AffinityErr() error {
	return t.affinityErr
}
