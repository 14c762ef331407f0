// File: core/concurrency/fiber.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cooperative fibers. A FiberContext owns the "current fiber" state that
// would otherwise be process-wide; every operation goes through it. Exactly
// one fiber of a context runs at a time and control moves only on Switch or
// when a fiber's function returns, in which case it goes back to the main
// fiber. There is no scheduler.
//
// Only the running fiber may call into its context.

package concurrency

import "runtime"

// FiberFunc is the body of a fiber.
type FiberFunc func(arg any)

// Fiber is a suspended or running unit of cooperative execution.
type Fiber struct {
	ctx    *FiberContext
	fn     FiberFunc
	arg    any
	resume chan struct{}
	killed chan struct{}

	started  bool
	finished bool
	deleted  bool
	err      error
}

// FiberContext is the explicit scheduling context of a set of fibers.
type FiberContext struct {
	main    *Fiber
	current *Fiber
}

// NewFiberContext converts the calling goroutine into the main fiber of a
// new context.
func NewFiberContext() *FiberContext {
	c := &FiberContext{}
	c.main = &Fiber{
		ctx:     c,
		resume:  make(chan struct{}),
		killed:  make(chan struct{}),
		started: true,
	}
	c.current = c.main
	return c
}

// Create returns a fiber that starts running fn(arg) on its first Switch.
func (c *FiberContext) Create(fn FiberFunc, arg any) (*Fiber, error) {
	if fn == nil {
		return nil, ErrNilEntry
	}
	return &Fiber{
		ctx:    c,
		fn:     fn,
		arg:    arg,
		resume: make(chan struct{}),
		killed: make(chan struct{}),
	}, nil
}

// Main returns the fiber created by NewFiberContext.
func (c *FiberContext) Main() *Fiber {
	return c.main
}

// Current returns the running fiber.
func (c *FiberContext) Current() *Fiber {
	return c.current
}

// Switch suspends the running fiber and resumes to. It returns when some
// fiber switches back to the caller.
func (c *FiberContext) Switch(to *Fiber) error {
	switch {
	case to == nil:
		return ErrNilEntry
	case to.ctx != c:
		return ErrFiberForeign
	case to.deleted:
		return ErrFiberDeleted
	case to.finished:
		return ErrFiberFinished
	case to == c.current:
		return nil
	}

	from := c.current
	c.current = to
	if !to.started {
		to.started = true
		go c.run(to)
	} else {
		to.resume <- struct{}{}
	}
	from.park()
	return nil
}

// Delete releases a fiber that is not running. A suspended fiber is unwound:
// its deferred calls run and it never resumes.
func (c *FiberContext) Delete(f *Fiber) error {
	switch {
	case f == nil:
		return ErrNilEntry
	case f.ctx != c:
		return ErrFiberForeign
	case f == c.main:
		return ErrFiberMain
	case f == c.current:
		return ErrFiberRunning
	case f.deleted:
		return ErrFiberDeleted
	}
	f.deleted = true
	if f.started && !f.finished {
		close(f.killed)
	}
	return nil
}

// Finished reports whether the fiber's function has returned.
func (f *Fiber) Finished() bool {
	return f.finished
}

// Err returns the panic recovered from the fiber's function, if any.
func (f *Fiber) Err() error {
	return f.err
}

func (f *Fiber) park() {
	select {
	case <-f.resume:
	case <-f.killed:
		runtime.Goexit()
	}
}

func (c *FiberContext) run(f *Fiber) {
	f.err = CallRecover(func() error {
		f.fn(f.arg)
		return nil
	})
	f.finished = true
	c.current = c.main
	c.main.resume <- struct{}{}
}
