package concurrency

import (
	"runtime"
	"testing"

	"github.com/momentics/hioload-threads/affinity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateThread_JoinReturnsResult(t *testing.T) {
	num := 0

	th, err := CreateThread(func(arg any) any {
		p := arg.(*int)
		*p++
		return *p * 10
	}, &num, nil)
	require.NoError(t, err)
	result, err := th.Join()

	require.NoError(t, err)
	assert.Equal(t, 10, result)
	assert.Equal(t, 1, num)
}

func TestCreateThread_NilEntry(t *testing.T) {
	_, err := CreateThread(nil, nil, nil)

	assert.ErrorIs(t, err, ErrNilEntry)
}

func TestCreateThread_RunsOnOwnOSThread(t *testing.T) {
	if !affinity.Supported() {
		t.Skip("thread ids not available on " + runtime.GOOS)
	}
	release := make(chan struct{})
	entry := func(any) any {
		<-release
		return nil
	}

	a, err := CreateThread(entry, nil, &ThreadAttr{Name: "a", CPU: -1})
	require.NoError(t, err)
	b, err := CreateThread(entry, nil, &ThreadAttr{Name: "b", CPU: -1})
	require.NoError(t, err)
	close(release)

	assert.Positive(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "a", a.Name())
	_, err = a.Join()
	require.NoError(t, err)
	_, err = b.Join()
	require.NoError(t, err)
}

func TestThread_JoinTwice(t *testing.T) {
	th, err := CreateThread(func(any) any { return nil }, nil, nil)
	require.NoError(t, err)

	_, err = th.Join()
	require.NoError(t, err)
	_, err = th.Join()

	assert.ErrorIs(t, err, ErrThreadJoined)
	assert.ErrorIs(t, th.Detach(), ErrThreadJoined)
}

func TestThread_Detach(t *testing.T) {
	done := make(chan struct{})
	th, err := CreateThread(func(any) any {
		close(done)
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, th.Detach())
	_, err = th.Join()

	assert.ErrorIs(t, err, ErrThreadDetached)
	<-done
	<-th.Done()
}

func TestThread_DetachedAttr(t *testing.T) {
	th, err := CreateThread(func(any) any { return nil }, nil, &ThreadAttr{Detached: true, CPU: -1})
	require.NoError(t, err)

	_, err = th.Join()

	assert.ErrorIs(t, err, ErrThreadDetached)
}

func TestThread_PanicIsReportedByJoin(t *testing.T) {
	th, err := CreateThread(func(any) any { panic("boom") }, nil, nil)
	require.NoError(t, err)

	_, err = th.Join()

	assert.ErrorIs(t, err, ErrPanic)
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestCreateThread_StrictAffinityFailure(t *testing.T) {
	ran := false
	_, err := CreateThread(func(any) any {
		ran = true
		return nil
	}, nil, &ThreadAttr{Name: "pinned", CPU: 1 << 20, StrictAffinity: true})

	assert.Error(t, err)
	assert.False(t, ran)
}

func TestCreateThread_LenientAffinityFailure(t *testing.T) {
	th, err := CreateThread(func(any) any { return "ok" }, nil, &ThreadAttr{CPU: 1 << 20})
	require.NoError(t, err)

	result, err := th.Join()

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Error(t, th.AffinityErr())
}
