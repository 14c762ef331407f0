//go:build !linux && !windows
// +build !linux,!windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.
// Returns error to indicate unavailability.

package affinity

const supportedPlatform = false

// setAffinityPlatform is a stub for platforms where CPU affinity is not supported.
func setAffinityPlatform(int) error {
	return ErrNotSupported
}

func currentThreadIDPlatform() int {
	return -1
}
