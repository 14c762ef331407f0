// File: pool/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker loop. Each worker owns one kernel thread for its whole life and
// moves between waiting on the work condition and running a dequeued task.

package pool

import (
	"errors"
	"time"

	"github.com/momentics/hioload-threads/core/concurrency"
)

type worker struct {
	id     int
	pool   *ThreadPool
	thread *concurrency.Thread
}

// loop is the thread entry point. It returns once shutdown is observed,
// leaving any queued tasks for Destroy to discard.
func (w *worker) loop(any) any {
	p := w.pool
	defer p.live.Add(-1)
	for {
		t := w.next()
		if t == nil {
			return nil
		}
		w.execute(t)
		w.finish()
	}
}

// next blocks until a task is available or the pool shuts down. Shutdown
// takes precedence over queued work.
func (w *worker) next() *task {
	p := w.pool
	if p.mu.Lock() != nil {
		return nil
	}
	for p.tasks.len() == 0 && !p.shutdown {
		if err := p.work.Wait(); err != nil {
			_ = p.mu.Unlock()
			return nil
		}
	}
	if p.shutdown {
		_ = p.mu.Unlock()
		return nil
	}
	t := p.tasks.pop()
	if onDequeue != nil {
		onDequeue(t.seq)
	}
	p.running++
	p.metrics.taskStarted(p.name, p.tasks.len(), time.Since(t.enqueued))
	_ = p.mu.Unlock()
	return t
}

// execute runs t outside the lock. Errors and panics are reported and never
// reach the worker loop.
func (w *worker) execute(t *task) {
	p := w.pool
	seq := t.seq
	start := time.Now()
	err := concurrency.CallRecover(t.run)
	took := time.Since(start)
	t.release()

	if err == nil {
		p.completed.Add(1)
		p.metrics.taskFinished(p.name, took, "")
		return
	}

	p.failed.Add(1)
	reason := reasonError
	var perr *concurrency.PanicError
	if errors.As(err, &perr) {
		reason = reasonPanic
		p.logger.Error("task panicked", "worker", w.id, "seq", seq, "panic", perr.Value, "stack", string(perr.Stack))
	} else {
		p.logger.Warn("task failed", "worker", w.id, "seq", seq, "error", err)
	}
	p.metrics.taskFinished(p.name, took, reason)
}

// finish marks the worker idle and wakes WaitIdle callers once the pool has
// nothing left queued or running.
func (w *worker) finish() {
	p := w.pool
	if p.mu.Lock() != nil {
		return
	}
	p.running--
	if p.running == 0 && p.tasks.len() == 0 {
		_ = p.idle.Broadcast()
	}
	_ = p.mu.Unlock()
}
