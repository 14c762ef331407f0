// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Process configuration: defaults, optional YAML file and HIOLOAD_*
// environment overrides, decoded through viper on yaml tags.

package control

import (
	"runtime"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/momentics/hioload-threads/internal/logger"
	"github.com/momentics/hioload-threads/internal/workload"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. HIOLOAD_POOL_WORKERS.
const EnvPrefix = "HIOLOAD"

// PoolConfig configures the thread pool.
type PoolConfig struct {
	Name           string `json:"name" yaml:"name"`
	Workers        int    `json:"workers" yaml:"workers"`
	PinWorkers     bool   `json:"pin_workers" yaml:"pin-workers"`
	StrictAffinity bool   `json:"strict_affinity" yaml:"strict-affinity"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Address string `json:"address" yaml:"address"`
}

// Config is the complete process configuration.
type Config struct {
	Pool     PoolConfig      `json:"pool" yaml:"pool"`
	Logging  logger.Config   `json:"logging" yaml:"logging"`
	Metrics  MetricsConfig   `json:"metrics" yaml:"metrics"`
	Workload workload.Config `json:"workload" yaml:"workload"`
}

// SetDefaults installs every known key on v so environment overrides and
// unmarshalling see the full key set.
func SetDefaults(v *viper.Viper) {
	lc := logger.DefaultConfig()
	wc := workload.DefaultConfig()

	v.SetDefault("pool.name", "")
	v.SetDefault("pool.workers", runtime.NumCPU())
	v.SetDefault("pool.pin-workers", false)
	v.SetDefault("pool.strict-affinity", false)

	v.SetDefault("logging.severity", lc.Severity)
	v.SetDefault("logging.format", lc.Format)
	v.SetDefault("logging.file-path", lc.FilePath)
	v.SetDefault("logging.max-size-mb", lc.MaxSizeMB)
	v.SetDefault("logging.max-backups", lc.MaxBackups)
	v.SetDefault("logging.compress", lc.Compress)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", "127.0.0.1:9464")

	v.SetDefault("workload.tasks", wc.Tasks)
	v.SetDefault("workload.submitters", wc.Submitters)
	v.SetDefault("workload.max-in-flight", wc.MaxInFlight)
	v.SetDefault("workload.work", wc.Work)
	v.SetDefault("workload.fail-every", wc.FailEvery)
	v.SetDefault("workload.panic-every", wc.PanicEvery)
}

// NewViper returns a viper instance with defaults and environment binding,
// reading file when it is not empty.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error while reading the config file %s", file)
		}
	}
	return v, nil
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)), func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return nil, errors.Wrap(err, "error while unmarshaling the config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads file (optional) and the environment into a validated Config.
func Load(file string) (*Config, *viper.Viper, error) {
	v, err := NewViper(file)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Pool.Workers < 1 {
		return errors.Errorf("pool.workers must be at least 1, got %d", c.Pool.Workers)
	}
	if c.Pool.StrictAffinity && !c.Pool.PinWorkers {
		return errors.New("pool.strict-affinity requires pool.pin-workers")
	}
	if _, err := logger.ParseSeverity(c.Logging.Severity); err != nil {
		return errors.Wrap(err, "logging.severity")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		return errors.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return errors.New("metrics.address is required when metrics are enabled")
	}
	return errors.Wrap(c.Workload.Validate(), "workload")
}
