package affinity_test

import (
	"runtime"
	"testing"

	"github.com/momentics/hioload-threads/affinity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAffinity_RejectsNegativeCPU(t *testing.T) {
	err := affinity.SetAffinity(-1)

	assert.ErrorIs(t, err, affinity.ErrInvalidCPU)
}

func TestSetAffinity_PinsCurrentThread(t *testing.T) {
	if !affinity.Supported() {
		t.Skip("affinity not supported on " + runtime.GOOS)
	}
	done := make(chan error)
	go func() {
		// The thread is discarded with the goroutine, so its mask never leaks.
		runtime.LockOSThread()
		done <- affinity.SetAffinity(0)
	}()

	require.NoError(t, <-done)
}

func TestSetAffinity_RejectsCPUBeyondKernelSet(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("kernel cpu set bound is linux specific")
	}
	done := make(chan error)
	go func() {
		runtime.LockOSThread()
		done <- affinity.SetAffinity(1 << 20)
	}()

	assert.ErrorIs(t, <-done, affinity.ErrInvalidCPU)
}

func TestCurrentThreadID(t *testing.T) {
	if !affinity.Supported() {
		assert.Equal(t, -1, affinity.CurrentThreadID())
		return
	}
	ids := make(chan int, 2)
	release := make(chan struct{})
	defer close(release)
	for i := 0; i < 2; i++ {
		go func() {
			runtime.LockOSThread()
			ids <- affinity.CurrentThreadID()
			// Hold the thread until both ids are read so they cannot coincide.
			<-release
		}()
	}
	a, b := <-ids, <-ids

	assert.Positive(t, a)
	assert.Positive(t, b)
	assert.NotEqual(t, a, b)
}
