// File: pool/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"log/slog"
	"runtime"

	"github.com/momentics/hioload-threads/api"
)

// Config describes a ThreadPool.
type Config struct {
	// Name labels logs, metrics and debug probes. Empty selects "pool-<id>".
	Name string

	// Workers is the fixed number of worker threads, at least 1.
	Workers int

	// PinWorkers pins worker i to logical CPU i modulo runtime.NumCPU().
	PinWorkers bool

	// StrictAffinity fails creation when a worker cannot be pinned.
	// Otherwise the failure is logged and the worker runs unpinned.
	StrictAffinity bool

	// Logger receives lifecycle and task failure records. Nil selects
	// slog.Default().
	Logger *slog.Logger

	// Metrics, when set, is updated by the pool.
	Metrics *Metrics

	// Debug, when set, receives a probe reporting Stats.
	Debug api.Debug
}

// DefaultConfig returns a pool configuration with one worker per CPU.
func DefaultConfig() *Config {
	return &Config{
		Workers: runtime.NumCPU(),
	}
}
