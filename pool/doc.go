// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-size kernel-thread pool executing fire-and-forget tasks from a shared
// FIFO queue.
//
// Workers block on a condition variable until a task is queued or shutdown
// is requested. Destroy wakes every worker, joins them and discards the tasks
// that never started: a task is either run to completion or not run at all.
// Task results travel through the argument the submitter passes in; the pool
// only logs and counts task failures, and a failing or panicking task never
// takes its worker down.
package pool
