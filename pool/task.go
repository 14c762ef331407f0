// File: pool/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task records. A record is owned by the submitter until enqueued, by the
// queue until dequeued and by the executing worker afterwards, which returns
// it to the record pool once the task has run or been discarded.

package pool

import (
	"time"

	"github.com/momentics/hioload-threads/api"
)

type task struct {
	seq      uint64
	fn       api.TaskFunc
	arg      any
	enqueued time.Time
}

var taskRecords = NewSyncPool(
	func() *task { return new(task) },
	func(t *task) { *t = task{} },
)

func newTask(fn api.TaskFunc, arg any) *task {
	t := taskRecords.Get()
	t.fn = fn
	t.arg = arg
	return t
}

// release clears every reference held by t and recycles it.
func (t *task) release() {
	taskRecords.Put(t)
}

func (t *task) run() error {
	return t.fn(t.arg)
}
