// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for OS thread identity and CPU affinity. Platform-specific
// implementations are located in separate files (affinity_linux.go,
// affinity_windows.go, affinity_stub.go) guarded by build tags.
//
// Every function acts on the calling OS thread, so callers pin their goroutine
// with runtime.LockOSThread first.

package affinity

import "github.com/pkg/errors"

var (
	// ErrNotSupported is returned where the platform offers no affinity control.
	ErrNotSupported = errors.New("affinity: not supported on this platform")
	// ErrInvalidCPU is returned for negative CPU indexes.
	ErrInvalidCPU = errors.New("affinity: invalid cpu index")
)

// SetAffinity pins the current OS thread to a given logical CPU.
func SetAffinity(cpuID int) error {
	if cpuID < 0 {
		return errors.Wrapf(ErrInvalidCPU, "cpu %d", cpuID)
	}
	return setAffinityPlatform(cpuID)
}

// CurrentThreadID returns the kernel identifier of the calling OS thread, or
// -1 where the platform does not expose one.
func CurrentThreadID() int {
	return currentThreadIDPlatform()
}

// Supported reports whether SetAffinity can succeed on this platform.
func Supported() bool {
	return supportedPlatform
}
