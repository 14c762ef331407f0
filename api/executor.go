// Package api
// Author: momentics
//
// Executor contract for fire-and-forget task dispatch.

package api

// TaskFunc is a unit of deferred work. The returned error is reported by the
// executor and never delivered back to the submitter.
type TaskFunc func(arg any) error

// Executor abstracts a fixed-size pool of workers fed from a FIFO queue.
type Executor interface {
	// Submit enqueues fn to be invoked with arg by some worker.
	Submit(fn TaskFunc, arg any) error

	// NumWorkers returns the number of worker threads.
	NumWorkers() int

	// Destroy stops every worker and discards tasks that never started.
	Destroy() error
}
