// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Reload hooks notified with the new configuration when the config file
// changes.

package control

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReloadHooks is a list of listeners for configuration changes.
type ReloadHooks struct {
	mu    sync.RWMutex
	hooks []func(*Config)
}

// NewReloadHooks creates an empty hook list.
func NewReloadHooks() *ReloadHooks {
	return &ReloadHooks{}
}

// Register adds a listener.
func (rh *ReloadHooks) Register(fn func(*Config)) {
	rh.mu.Lock()
	rh.hooks = append(rh.hooks, fn)
	rh.mu.Unlock()
}

func (rh *ReloadHooks) snapshot() []func(*Config) {
	rh.mu.RLock()
	defer rh.mu.RUnlock()
	return slices.Clone(rh.hooks)
}

// Trigger dispatches cfg to every listener asynchronously.
func (rh *ReloadHooks) Trigger(cfg *Config) {
	for _, fn := range rh.snapshot() {
		go fn(cfg)
	}
}

// TriggerSync invokes every listener in registration order.
func (rh *ReloadHooks) TriggerSync(cfg *Config) {
	for _, fn := range rh.snapshot() {
		fn(cfg)
	}
}

// Watch re-decodes v whenever its config file changes and passes valid
// results to hooks. Invalid files are logged and ignored.
func Watch(v *viper.Viper, hooks *ReloadHooks, logger *slog.Logger) {
	v.OnConfigChange(func(e fsnotify.Event) {
		reload(v, hooks, logger, e.Name)
	})
	v.WatchConfig()
}

func reload(v *viper.Viper, hooks *ReloadHooks, logger *slog.Logger, file string) {
	cfg, err := Decode(v)
	if err != nil {
		logger.Warn("ignoring invalid config change", "file", file, "error", err)
		return
	}
	logger.Info("config reloaded", "file", file)
	hooks.TriggerSync(cfg)
}
