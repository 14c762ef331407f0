//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for setting thread CPU affinity.
// Masks are limited to the first processor group (64 CPUs).

package affinity

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const supportedPlatform = true

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = modkernel32.NewProc("SetThreadAffinityMask")
)

// setAffinityPlatform sets thread affinity to a given CPU for Windows.
func setAffinityPlatform(cpuID int) error {
	if cpuID >= 64 {
		return errors.Wrapf(ErrInvalidCPU, "cpu %d outside the first processor group", cpuID)
	}
	mask := uintptr(1) << uint(cpuID)
	old, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if old == 0 {
		return errors.Wrapf(err, "affinity: SetThreadAffinityMask cpu %d", cpuID)
	}
	return nil
}

func currentThreadIDPlatform() int {
	return int(windows.GetCurrentThreadId())
}
