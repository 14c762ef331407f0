// File: pool/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unbounded FIFO of pending tasks on an auto-growing ring buffer.
// Not safe for concurrent use: every call happens under the pool mutex.

package pool

import "github.com/eapache/queue"

type taskQueue struct {
	q *queue.Queue
}

func newTaskQueue() *taskQueue {
	return &taskQueue{q: queue.New()}
}

func (tq *taskQueue) push(t *task) {
	tq.q.Add(t)
}

// pop removes the head, or returns nil when empty.
func (tq *taskQueue) pop() *task {
	if tq.q.Length() == 0 {
		return nil
	}
	return tq.q.Remove().(*task)
}

func (tq *taskQueue) len() int {
	return tq.q.Length()
}

// drain releases every queued task without running it and reports how many
// were dropped.
func (tq *taskQueue) drain() int {
	n := 0
	for t := tq.pop(); t != nil; t = tq.pop() {
		t.release()
		n++
	}
	return n
}
