// Author: momentics <momentics@gmail.com>

package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("b", func() any { return 2 })
	dp.RegisterProbe("a", func() any { return 1 })
	assert.Equal(t, []string{"a", "b"}, dp.Names())
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, dp.DumpState())

	dp.UnregisterProbe("a")
	dp.UnregisterProbe("missing")
	assert.Equal(t, []string{"b"}, dp.Names())
}

func TestProbeMayUnregisterItself(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("once", func() any {
		dp.UnregisterProbe("once")
		return "gone"
	})
	assert.Equal(t, "gone", dp.DumpState()["once"])
	assert.Empty(t, dp.Names())
}

func TestPlatformProbes(t *testing.T) {
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	state := dp.DumpState()
	require.Contains(t, state, "platform.cpus")
	assert.Positive(t, state["platform.cpus"].(int))
	assert.Contains(t, state, "platform.affinity")
}
