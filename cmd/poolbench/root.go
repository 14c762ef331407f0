// File: cmd/poolbench/root.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"encoding/json"
	"io"

	"github.com/jacobsa/syncutil"
	"github.com/momentics/hioload-threads/control"
	"github.com/momentics/hioload-threads/internal/logger"
	"github.com/momentics/hioload-threads/internal/workload"
	"github.com/momentics/hioload-threads/pool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type options struct {
	configFile      string
	output          string
	watchConfig     bool
	checkInvariants bool
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"workers":         "pool.workers",
	"name":            "pool.name",
	"pin-workers":     "pool.pin-workers",
	"strict-affinity": "pool.strict-affinity",
	"tasks":           "workload.tasks",
	"submitters":      "workload.submitters",
	"max-in-flight":   "workload.max-in-flight",
	"work":            "workload.work",
	"fail-every":      "workload.fail-every",
	"panic-every":     "workload.panic-every",
	"log-severity":    "logging.severity",
	"log-format":      "logging.format",
	"log-file":        "logging.file-path",
	"metrics":         "metrics.enabled",
	"metrics-address": "metrics.address",
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "poolbench [flags]",
		Short: "Run a synthetic workload on a kernel thread pool",
		Long: `poolbench starts a fixed-size thread pool, submits a configurable
number of CPU-bound tasks from concurrent submitters and prints a YAML or
JSON report with pool counters, metrics and debug probes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := control.NewViper(opts.configFile)
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			return run(cmd, v, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.configFile, "config-file", "", "YAML config file")
	fs.StringVarP(&opts.output, "output", "o", "yaml", "report format: yaml or json")
	fs.BoolVar(&opts.watchConfig, "watch-config", false, "apply log severity changes from the config file while running")
	fs.BoolVar(&opts.checkInvariants, "check-invariants", false, "check pool invariants on every lock and unlock")

	fs.Int("workers", 0, "number of worker threads")
	fs.String("name", "", "pool name")
	fs.Bool("pin-workers", false, "pin worker i to CPU i modulo the CPU count")
	fs.Bool("strict-affinity", false, "fail when a worker cannot be pinned")
	fs.Int("tasks", 0, "number of tasks to submit")
	fs.Int("submitters", 0, "number of concurrent submitters")
	fs.Int("max-in-flight", 0, "bound on tasks submitted but not finished, 0 for none")
	fs.Duration("work", 0, "busy time per task")
	fs.Int("fail-every", 0, "make every n-th task fail")
	fs.Int("panic-every", 0, "make every n-th task panic")
	fs.String("log-severity", "", "TRACE, DEBUG, INFO, WARNING, ERROR or OFF")
	fs.String("log-format", "", "text or json")
	fs.String("log-file", "", "log to a rotating file instead of stderr")
	fs.Bool("metrics", false, "serve Prometheus metrics while running")
	fs.String("metrics-address", "", "metrics listen address")
	return cmd
}

// bindFlags binds every flag in flagKeys. Unchanged flags fall through to
// the file, environment and defaults.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			return errors.Errorf("flag %q is not defined", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "error while binding flag %q", flag)
		}
	}
	return nil
}

type report struct {
	Config   *control.Config    `json:"config" yaml:"config"`
	Workload *workload.Report   `json:"workload" yaml:"workload"`
	Metrics  map[string]float64 `json:"metrics" yaml:"metrics"`
	Probes   map[string]any     `json:"probes" yaml:"probes"`
}

func run(cmd *cobra.Command, v *viper.Viper, opts *options) error {
	if opts.output != "yaml" && opts.output != "json" {
		return errors.Errorf("unknown output format %q", opts.output)
	}
	cfg, err := control.Decode(v)
	if err != nil {
		return err
	}
	if opts.checkInvariants {
		syncutil.EnableInvariantChecking()
	}

	log, err := logger.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Close()

	ctx := cmd.Context()
	if opts.watchConfig && opts.configFile != "" {
		hooks := control.NewReloadHooks()
		hooks.Register(func(c *control.Config) {
			if err := log.SetSeverity(c.Logging.Severity); err != nil {
				log.Warn("could not apply log severity", "error", err)
			}
		})
		control.Watch(v, hooks, log.Logger)
	}

	registry := control.NewMetricsRegistry()
	metrics, err := pool.NewMetrics(registry.Registerer())
	if err != nil {
		return err
	}
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)

	if cfg.Metrics.Enabled {
		go func() {
			if err := registry.Serve(ctx, cfg.Metrics.Address); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
		log.Info("serving metrics", "address", cfg.Metrics.Address)
	}

	p, err := pool.New(&pool.Config{
		Name:           cfg.Pool.Name,
		Workers:        cfg.Pool.Workers,
		PinWorkers:     cfg.Pool.PinWorkers,
		StrictAffinity: cfg.Pool.StrictAffinity,
		Logger:         log.Logger,
		Metrics:        metrics,
		Debug:          probes,
	})
	if err != nil {
		return err
	}

	wr, runErr := workload.Run(ctx, p, cfg.Workload, log.Logger)
	out := &report{Config: cfg, Workload: wr, Probes: probes.DumpState()}
	if err := p.Destroy(); err != nil {
		log.Error("pool did not shut down cleanly", "error", err)
	}
	if runErr != nil {
		return runErr
	}
	if out.Metrics, err = registry.Snapshot("hioload_pool_"); err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), opts.output, out)
}

func writeReport(w io.Writer, format string, r *report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(r), "encode report")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "encode report")
	}
	return errors.Wrap(enc.Close(), "encode report")
}
