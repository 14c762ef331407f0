//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation using sched_setaffinity(2) and gettid(2).

package affinity

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const supportedPlatform = true

// setAffinityPlatform sets thread affinity to a given CPU for Linux.
// pid 0 addresses the calling thread, not the whole process.
func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if set.Count() == 0 {
		return errors.Wrapf(ErrInvalidCPU, "cpu %d exceeds the kernel cpu set", cpuID)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.Wrapf(err, "affinity: sched_setaffinity cpu %d", cpuID)
	}
	return nil
}

func currentThreadIDPlatform() int {
	return unix.Gettid()
}
