// Author: momentics <momentics@gmail.com>

package control

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerSyncOrder(t *testing.T) {
	rh := NewReloadHooks()
	var seen []int
	for i := 0; i < 3; i++ {
		rh.Register(func(*Config) { seen = append(seen, i) })
	}
	rh.TriggerSync(&Config{})
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestTriggerAsync(t *testing.T) {
	rh := NewReloadHooks()
	var wg sync.WaitGroup
	wg.Add(2)
	cfg := &Config{Pool: PoolConfig{Workers: 9}}
	for i := 0; i < 2; i++ {
		rh.Register(func(c *Config) {
			assert.Equal(t, 9, c.Pool.Workers)
			wg.Done()
		})
	}
	rh.Trigger(cfg)
	wg.Wait()
}

func TestReloadSkipsInvalidConfig(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := writeConfig(t, "logging:\n  severity: INFO\n")
	v, err := NewViper(path)
	require.NoError(t, err)

	rh := NewReloadHooks()
	var got []string
	rh.Register(func(c *Config) { got = append(got, c.Logging.Severity) })

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  severity: DEBUG\n"), 0o644))
	require.NoError(t, v.ReadInConfig())
	reload(v, rh, discard, path)

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  severity: LOUD\n"), 0o644))
	require.NoError(t, v.ReadInConfig())
	reload(v, rh, discard, path)

	assert.Equal(t, []string{"DEBUG"}, got)
}

func TestWatchPicksUpFileChange(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := writeConfig(t, "logging:\n  severity: INFO\n")
	v, err := NewViper(path)
	require.NoError(t, err)

	rh := NewReloadHooks()
	changed := make(chan string, 8)
	rh.Register(func(c *Config) {
		select {
		case changed <- c.Logging.Severity:
		default:
		}
	})
	Watch(v, rh, discard)

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  severity: WARNING\n"), 0o644))
	select {
	case sev := <-changed:
		assert.Equal(t, "WARNING", sev)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config file change")
	}
}

func TestTriggerSyncUsesRegisteredSnapshot(t *testing.T) {
	rh := NewReloadHooks()
	late := 0
	rh.Register(func(*Config) {
		rh.Register(func(*Config) { late++ })
	})

	rh.TriggerSync(&Config{})
	assert.Zero(t, late)

	rh.TriggerSync(&Config{})
	assert.Equal(t, 1, late)
}
