// File: pool/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus instrumentation shared by every pool registered on one
// Registerer. Series are labelled by pool name. A nil *Metrics is valid and
// records nothing.

package pool

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	reasonError = "error"
	reasonPanic = "panic"
)

// Metrics holds the pool collectors.
type Metrics struct {
	submitted    *prometheus.CounterVec
	completed    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	discarded    *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	queueDepth   *prometheus.GaugeVec
	busyWorkers  *prometheus.GaugeVec
	workers      *prometheus.GaugeVec
	taskDuration *prometheus.HistogramVec
	taskWait     *prometheus.HistogramVec
}

// NewMetrics creates the pool collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hioload_pool_tasks_submitted_total",
				Help: "Number of tasks accepted by the pool.",
			},
			[]string{"pool"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hioload_pool_tasks_completed_total",
				Help: "Number of tasks that returned without error.",
			},
			[]string{"pool"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hioload_pool_tasks_failed_total",
				Help: "Number of tasks that returned an error or panicked.",
			},
			[]string{"pool", "reason"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hioload_pool_tasks_discarded_total",
				Help: "Number of queued tasks dropped at shutdown without running.",
			},
			[]string{"pool"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hioload_pool_tasks_rejected_total",
				Help: "Number of submissions refused because the pool was shutting down.",
			},
			[]string{"pool"},
		),
		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hioload_pool_queue_depth",
				Help: "Number of tasks waiting for a worker.",
			},
			[]string{"pool"},
		),
		busyWorkers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hioload_pool_busy_workers",
				Help: "Number of workers currently running a task.",
			},
			[]string{"pool"},
		),
		workers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hioload_pool_workers",
				Help: "Number of live worker threads.",
			},
			[]string{"pool"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "hioload_pool_task_duration_seconds",
				Help: "Time spent running a task.",

				// 24 buckets: [10us, 20us, ..., 84s, +Inf]
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 24),
			},
			[]string{"pool"},
		),
		taskWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hioload_pool_task_wait_seconds",
				Help:    "Time a task spent queued before a worker picked it up.",
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 24),
			},
			[]string{"pool"},
		),
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "could not register pool metrics")
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.submitted, m.completed, m.failed, m.discarded, m.rejected,
		m.queueDepth, m.busyWorkers, m.workers, m.taskDuration, m.taskWait,
	}
}

func (m *Metrics) taskSubmitted(pool string, depth int) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(pool).Inc()
	m.queueDepth.WithLabelValues(pool).Set(float64(depth))
}

func (m *Metrics) taskRejected(pool string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(pool).Inc()
}

func (m *Metrics) taskStarted(pool string, depth int, waited time.Duration) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(pool).Set(float64(depth))
	m.busyWorkers.WithLabelValues(pool).Inc()
	m.taskWait.WithLabelValues(pool).Observe(waited.Seconds())
}

func (m *Metrics) taskFinished(pool string, took time.Duration, failReason string) {
	if m == nil {
		return
	}
	m.busyWorkers.WithLabelValues(pool).Dec()
	m.taskDuration.WithLabelValues(pool).Observe(took.Seconds())
	if failReason == "" {
		m.completed.WithLabelValues(pool).Inc()
	} else {
		m.failed.WithLabelValues(pool, failReason).Inc()
	}
}

func (m *Metrics) tasksDiscarded(pool string, n int) {
	if m == nil {
		return
	}
	m.discarded.WithLabelValues(pool).Add(float64(n))
	m.queueDepth.WithLabelValues(pool).Set(0)
}

func (m *Metrics) workersLive(pool string, n int) {
	if m == nil {
		return
	}
	m.workers.WithLabelValues(pool).Set(float64(n))
}
