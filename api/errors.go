// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy and structured error type shared by pools and primitives.

package api

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode classifies a failure.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	// ErrCodeResourceExhausted covers allocation failures for tasks or worker storage.
	ErrCodeResourceExhausted
	// ErrCodeInitFailed covers mutex, condition variable or thread creation failures.
	ErrCodeInitFailed
	// ErrCodeContractViolation covers misuse by the caller.
	ErrCodeContractViolation
	// ErrCodeShutdown is returned for work offered to a pool that is stopping.
	ErrCodeShutdown
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeInitFailed:
		return "init_failed"
	case ErrCodeContractViolation:
		return "contract_violation"
	case ErrCodeShutdown:
		return "shutdown"
	default:
		return "internal"
	}
}

// Common errors used across the library.
var (
	ErrInvalidWorkerCount = NewError(ErrCodeContractViolation, "worker count must be greater than 0")
	ErrNilTask            = NewError(ErrCodeContractViolation, "task function is nil")
	ErrPoolShutdown       = NewError(ErrCodeShutdown, "thread pool is shutting down")
	ErrPoolDestroyed      = NewError(ErrCodeContractViolation, "thread pool already destroyed")
	ErrPrimitiveInit      = NewError(ErrCodeInitFailed, "could not initialise synchronization primitive")
	ErrThreadStart        = NewError(ErrCodeInitFailed, "could not start worker thread")
	ErrNotSupported       = NewError(ErrCodeInternal, "operation not supported")
)

// Error represents a structured error with code, context and an optional
// underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Context) > 0 {
		msg = fmt.Sprintf("%s (context: %+v)", msg, e.Context)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code and message, so errors
// derived through WithContext still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == e.Message
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithContext returns a copy of e with key set to value.
func (e *Error) WithContext(key string, value any) *Error {
	ctx := make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &Error{Code: e.Code, Message: e.Message, Context: ctx, Err: e.Err}
}

// Wrap returns a copy of e caused by err.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Context: e.Context, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, ErrCodeOK for a
// nil error and ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
