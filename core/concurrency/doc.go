// Package concurrency
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Primitives for concurrent execution: kernel threads, mutexes, condition
// variables, counting semaphores and cooperative fibers. Each operation
// reports failure through an error instead of aborting, and each type
// satisfies the matching contract in package api.
//
// Platform differences live in package affinity behind build tags; the
// primitives here have a single implementation.
package concurrency
