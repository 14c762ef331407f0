//go:build windows
// +build windows

// control/platform_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific debug probes.

package control

import (
	"runtime"

	"github.com/momentics/hioload-threads/affinity"
)

// RegisterPlatformProbes adds CPU and affinity probes. Thread affinity masks
// cover the first 64 logical CPUs only.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.affinity", func() any {
		return affinity.Supported()
	})
	dp.RegisterProbe("platform.affinity_cpus", func() any {
		return min(runtime.NumCPU(), 64)
	})
}
