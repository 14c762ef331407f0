// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus registry with runtime collectors, an HTTP exposition handler
// and flat snapshots for reports.

package control

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// MetricsRegistry owns the process collectors.
type MetricsRegistry struct {
	reg *prometheus.Registry
}

// NewMetricsRegistry creates a registry preloaded with Go runtime and
// process collectors.
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &MetricsRegistry{reg: reg}
}

// Registerer is where components register their collectors.
func (mr *MetricsRegistry) Registerer() prometheus.Registerer {
	return mr.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (mr *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(mr.reg, promhttp.HandlerOpts{Registry: mr.reg})
}

// Snapshot flattens counters and gauges whose name starts with prefix into
// name{labels} -> value.
func (mr *MetricsRegistry) Snapshot(prefix string) (map[string]float64, error) {
	families, err := mr.reg.Gather()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "gather metrics")
	}
	out := make(map[string]float64)
	for _, mf := range families {
		name := mf.GetName()
		if len(name) < len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		for _, m := range mf.GetMetric() {
			var v float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				v = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				v = m.GetGauge().GetValue()
			default:
				continue
			}
			out[name+labelString(m.GetLabel())] = v
		}
	}
	return out, nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	s := "{"
	for i, l := range labels {
		if i > 0 {
			s += ","
		}
		s += l.GetName() + "=" + l.GetValue()
	}
	return s + "}"
}

// Serve exposes /metrics on addr until ctx is done.
func (mr *MetricsRegistry) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "listen on %s", addr)
	}
	return mr.serve(ctx, ln)
}

func (mr *MetricsRegistry) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mr.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return pkgerrors.Wrap(err, "metrics server")
	}
	return nil
}
