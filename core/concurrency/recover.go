// File: core/concurrency/recover.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "runtime/debug"

// CallRecover invokes fn and converts a panic into a *PanicError.
func CallRecover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
