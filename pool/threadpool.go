// File: pool/threadpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ThreadPool lifecycle: creation with rollback, submission, idle waits and
// destruction with discard of unstarted work.

package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/core/concurrency"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var _ api.Executor = (*ThreadPool)(nil)

// createThread starts worker threads; replaced in tests to inject failures.
var createThread = concurrency.CreateThread

// onDequeue, when set, observes the sequence number of every dequeued task.
// Called with the pool mutex held.
var onDequeue func(seq uint64)

// ThreadPool runs submitted tasks on a fixed set of kernel threads.
type ThreadPool struct {
	name    string
	size    int
	logger  *slog.Logger
	metrics *Metrics
	debug   api.Debug

	mu   *concurrency.Mutex
	work *concurrency.Cond // wakes workers
	idle *concurrency.Cond // wakes WaitIdle callers

	// GUARDED_BY(mu)
	tasks *taskQueue

	// Monotonic false -> true.
	//
	// GUARDED_BY(mu)
	shutdown bool

	// Set once Destroy has drained the queue.
	// INVARIANT: destroyed implies shutdown and an empty queue
	//
	// GUARDED_BY(mu)
	destroyed bool

	// Number of workers between dequeue and task completion.
	// INVARIANT: 0 <= running <= size
	//
	// GUARDED_BY(mu)
	running int

	// GUARDED_BY(mu)
	nextSeq uint64

	// Written during New and Destroy only.
	workers []*worker

	live      atomic.Int32
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	discarded atomic.Uint64
	rejected  atomic.Uint64
}

// NewThreadPool creates a pool of workers threads with default settings.
func NewThreadPool(workers int) (*ThreadPool, error) {
	return New(&Config{Workers: workers})
}

// New creates a pool and starts all of its workers. If any worker fails to
// start, the ones already running are stopped and joined before the error is
// returned.
func New(cfg *Config) (*ThreadPool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Workers < 1 {
		return nil, api.ErrInvalidWorkerCount.WithContext("workers", cfg.Workers)
	}

	name := cfg.Name
	if name == "" {
		name = "pool-" + uuid.NewString()[:8]
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &ThreadPool{
		name:    name,
		size:    cfg.Workers,
		logger:  logger.With("pool", name),
		metrics: cfg.Metrics,
		debug:   cfg.Debug,
		tasks:   newTaskQueue(),
	}
	p.mu = concurrency.NewMutex(p.checkInvariants)

	var err error
	if p.work, err = concurrency.NewCond(p.mu); err != nil {
		return nil, api.ErrPrimitiveInit.WithContext("cond", "work").Wrap(err)
	}
	if p.idle, err = concurrency.NewCond(p.mu); err != nil {
		return nil, api.ErrPrimitiveInit.WithContext("cond", "idle").Wrap(err)
	}

	p.workers = make([]*worker, 0, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		w := &worker{id: i, pool: p}
		p.live.Add(1)
		th, err := createThread(w.loop, nil, p.threadAttr(cfg, i))
		if err != nil {
			p.live.Add(-1)
			p.rollback()
			return nil, errors.Wrapf(api.ErrThreadStart.WithContext("worker", i).Wrap(err),
				"could not create pool %s", name)
		}
		if aerr := th.AffinityErr(); aerr != nil {
			p.logger.Warn("worker runs unpinned", "worker", i, "error", aerr)
		}
		w.thread = th
		p.workers = append(p.workers, w)
	}

	p.metrics.workersLive(p.name, p.size)
	if p.debug != nil {
		p.debug.RegisterProbe(p.probeName(), func() any { return p.Stats() })
	}
	p.logger.Info("thread pool created", "workers", p.size, "pinned", cfg.PinWorkers)
	return p, nil
}

func (p *ThreadPool) threadAttr(cfg *Config, i int) *concurrency.ThreadAttr {
	attr := &concurrency.ThreadAttr{
		Name:           fmt.Sprintf("%s-worker-%d", p.name, i),
		CPU:            -1,
		StrictAffinity: cfg.StrictAffinity,
	}
	if cfg.PinWorkers {
		attr.CPU = i % runtime.NumCPU()
	}
	return attr
}

// rollback stops the workers started so far and releases the primitives.
func (p *ThreadPool) rollback() {
	if err := p.mu.Lock(); err == nil {
		p.shutdown = true
		_ = p.work.Broadcast()
		_ = p.mu.Unlock()
	}
	for _, w := range p.workers {
		if _, err := w.thread.Join(); err != nil {
			p.logger.Error("worker failed during rollback", "worker", w.id, "error", err)
		}
	}
	p.workers = nil
	_ = p.idle.Destroy()
	_ = p.work.Destroy()
	_ = p.mu.Destroy()
}

// Submit appends fn(arg) to the queue and wakes one worker. It fails with
// api.ErrPoolShutdown once Destroy has begun; such a task never runs.
func (p *ThreadPool) Submit(fn api.TaskFunc, arg any) error {
	if fn == nil {
		return api.ErrNilTask
	}
	t := newTask(fn, arg)

	if err := p.mu.Lock(); err != nil {
		t.release()
		p.reject()
		return api.ErrPoolShutdown.Wrap(err)
	}
	if p.shutdown {
		_ = p.mu.Unlock()
		t.release()
		p.reject()
		return api.ErrPoolShutdown
	}
	p.nextSeq++
	t.seq = p.nextSeq
	t.enqueued = time.Now()
	p.tasks.push(t)
	p.submitted.Add(1)
	p.metrics.taskSubmitted(p.name, p.tasks.len())
	_ = p.work.Signal()
	_ = p.mu.Unlock()
	return nil
}

// SubmitFunc submits a task without argument or error result.
func (p *ThreadPool) SubmitFunc(fn func()) error {
	if fn == nil {
		return api.ErrNilTask
	}
	return p.Submit(func(any) error {
		fn()
		return nil
	}, nil)
}

func (p *ThreadPool) reject() {
	p.rejected.Add(1)
	p.metrics.taskRejected(p.name)
}

// WaitIdle blocks until no task is queued or running. It returns
// api.ErrPoolShutdown if the pool stops first and ctx.Err() if ctx ends
// first.
func (p *ThreadPool) WaitIdle(ctx context.Context) error {
	if err := p.mu.Lock(); err != nil {
		return api.ErrPoolShutdown.Wrap(err)
	}
	stop := context.AfterFunc(ctx, func() {
		if p.mu.Lock() == nil {
			_ = p.idle.Broadcast()
			_ = p.mu.Unlock()
		}
	})
	defer stop()

	for p.tasks.len() > 0 || p.running > 0 {
		if p.shutdown {
			_ = p.mu.Unlock()
			return api.ErrPoolShutdown
		}
		if err := ctx.Err(); err != nil {
			_ = p.mu.Unlock()
			return err
		}
		if err := p.idle.Wait(); err != nil {
			_ = p.mu.Unlock()
			return api.ErrPoolShutdown.Wrap(err)
		}
	}
	_ = p.mu.Unlock()
	return nil
}

// Destroy sets the shutdown flag, wakes and joins every worker, then discards
// the tasks still queued without running them. Running tasks are never
// interrupted, so Destroy blocks for as long as they take. A pool cannot be
// destroyed twice.
func (p *ThreadPool) Destroy() error {
	if err := p.mu.Lock(); err != nil {
		return api.ErrPoolDestroyed
	}
	if p.shutdown {
		_ = p.mu.Unlock()
		return api.ErrPoolDestroyed
	}
	p.shutdown = true
	_ = p.work.Broadcast()
	_ = p.idle.Broadcast()
	_ = p.mu.Unlock()

	var errs error
	for _, w := range p.workers {
		if _, err := w.thread.Join(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "worker %d", w.id))
		}
	}

	_ = p.mu.Lock()
	dropped := p.tasks.drain()
	p.destroyed = true
	_ = p.mu.Unlock()

	p.discarded.Add(uint64(dropped))
	p.metrics.tasksDiscarded(p.name, dropped)
	p.metrics.workersLive(p.name, int(p.live.Load()))

	errs = multierr.Append(errs, p.idle.Destroy())
	errs = multierr.Append(errs, p.work.Destroy())
	errs = multierr.Append(errs, p.mu.Destroy())
	p.workers = nil

	if p.debug != nil {
		p.debug.UnregisterProbe(p.probeName())
	}
	p.logger.Info("thread pool destroyed", "discarded", dropped, "completed", p.completed.Load(), "failed", p.failed.Load())
	if errs != nil {
		return errors.Wrapf(errs, "could not destroy pool %s cleanly", p.name)
	}
	return nil
}

// Name returns the pool name.
func (p *ThreadPool) Name() string {
	return p.name
}

// NumWorkers returns the fixed number of workers.
func (p *ThreadPool) NumWorkers() int {
	return p.size
}

// Pending returns the number of queued tasks.
func (p *ThreadPool) Pending() int {
	if p.mu.Lock() != nil {
		return 0
	}
	n := p.tasks.len()
	_ = p.mu.Unlock()
	return n
}

func (p *ThreadPool) probeName() string {
	return "pool/" + p.name
}

// checkInvariants panics on a broken invariant. Called with mu held.
func (p *ThreadPool) checkInvariants() {
	if p.running < 0 || p.running > p.size {
		panic(fmt.Sprintf("running workers out of range: %d of %d", p.running, p.size))
	}
	if p.destroyed && (!p.shutdown || p.tasks.len() != 0) {
		panic(fmt.Sprintf("destroyed pool with shutdown=%v and %d queued tasks", p.shutdown, p.tasks.len()))
	}
}
