// File: internal/workload/workload.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Synthetic load for a thread pool: concurrent submitters, optional bound on
// tasks in flight, injected task errors and panics.

package workload

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/core/concurrency"
	"github.com/momentics/hioload-threads/pool"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrInjected is returned by tasks selected by Config.FailEvery.
var ErrInjected = errors.New("injected task failure")

// Pool is the part of a thread pool a workload drives.
type Pool interface {
	Submit(fn api.TaskFunc, arg any) error
	WaitIdle(ctx context.Context) error
	Stats() pool.Stats
}

// Config shapes a workload run.
type Config struct {
	// Tasks is the total number of tasks submitted.
	Tasks int `json:"tasks" yaml:"tasks"`
	// Submitters is the number of goroutines submitting concurrently.
	Submitters int `json:"submitters" yaml:"submitters"`
	// MaxInFlight bounds tasks submitted but not yet finished. 0 disables
	// the bound.
	MaxInFlight int `json:"max_in_flight" yaml:"max-in-flight"`
	// Work is how long each task spins.
	Work time.Duration `json:"work" yaml:"work"`
	// FailEvery makes every n-th task return ErrInjected. 0 disables.
	FailEvery int `json:"fail_every" yaml:"fail-every"`
	// PanicEvery makes every n-th task panic. 0 disables.
	PanicEvery int `json:"panic_every" yaml:"panic-every"`
}

// DefaultConfig returns a small CPU-bound workload.
func DefaultConfig() Config {
	return Config{
		Tasks:      10000,
		Submitters: runtime.NumCPU(),
		Work:       50 * time.Microsecond,
	}
}

// Validate reports the first inconsistent field.
func (c Config) Validate() error {
	switch {
	case c.Tasks < 0:
		return errors.Errorf("workload tasks must not be negative, got %d", c.Tasks)
	case c.Submitters < 1:
		return errors.Errorf("workload submitters must be at least 1, got %d", c.Submitters)
	case c.MaxInFlight < 0:
		return errors.Errorf("workload max-in-flight must not be negative, got %d", c.MaxInFlight)
	case c.Work < 0:
		return errors.Errorf("workload work must not be negative, got %s", c.Work)
	case c.FailEvery < 0 || c.PanicEvery < 0:
		return errors.New("workload fail-every and panic-every must not be negative")
	}
	return nil
}

// Report summarises a run.
type Report struct {
	Tasks      int           `json:"tasks" yaml:"tasks"`
	Submitted  int64         `json:"submitted" yaml:"submitted"`
	Ran        int64         `json:"ran" yaml:"ran"`
	Injected   int64         `json:"injected" yaml:"injected"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Throughput float64       `json:"throughput_per_sec" yaml:"throughput_per_sec"`
	Pool       pool.Stats    `json:"pool" yaml:"pool"`
}

// Run submits cfg.Tasks tasks to p and waits for the pool to go idle.
func Run(ctx context.Context, p Pool, cfg Config, logger *slog.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var inFlight *concurrency.Semaphore
	if cfg.MaxInFlight > 0 {
		var err error
		inFlight, err = concurrency.NewSemaphore(int64(cfg.MaxInFlight), int64(cfg.MaxInFlight))
		if err != nil {
			return nil, errors.Wrap(err, "could not create in-flight semaphore")
		}
		defer inFlight.Destroy()
	}

	var next, submitted, ran, injected atomic.Int64
	task := func(arg any) error {
		if inFlight != nil {
			defer inFlight.Post()
		}
		ran.Add(1)
		spin(cfg.Work)
		n := arg.(int64)
		if cfg.PanicEvery > 0 && n%int64(cfg.PanicEvery) == 0 {
			injected.Add(1)
			panic(errors.Errorf("injected panic in task %d", n))
		}
		if cfg.FailEvery > 0 && n%int64(cfg.FailEvery) == 0 {
			injected.Add(1)
			return errors.Wrapf(ErrInjected, "task %d", n)
		}
		return nil
	}

	logger.Info("workload started", "tasks", cfg.Tasks, "submitters", cfg.Submitters, "max_in_flight", cfg.MaxInFlight)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for s := 0; s < cfg.Submitters; s++ {
		g.Go(func() error {
			for {
				n := next.Add(1)
				if n > int64(cfg.Tasks) {
					return nil
				}
				if inFlight != nil {
					if err := inFlight.Wait(gctx); err != nil {
						return errors.Wrap(err, "waiting for in-flight slot")
					}
				}
				if err := p.Submit(task, n); err != nil {
					if inFlight != nil {
						_ = inFlight.Post()
					}
					return errors.Wrapf(err, "submit task %d", n)
				}
				submitted.Add(1)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := p.WaitIdle(ctx); err != nil {
		return nil, errors.Wrap(err, "waiting for pool to drain")
	}

	elapsed := time.Since(start)
	r := &Report{
		Tasks:     cfg.Tasks,
		Submitted: submitted.Load(),
		Ran:       ran.Load(),
		Injected:  injected.Load(),
		Elapsed:   elapsed,
		Pool:      p.Stats(),
	}
	if elapsed > 0 {
		r.Throughput = float64(r.Ran) / elapsed.Seconds()
	}
	logger.Info("workload finished", "ran", r.Ran, "injected", r.Injected, "elapsed", elapsed)
	return r, nil
}

// spin keeps the worker thread busy for d.
func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
