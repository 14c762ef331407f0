package concurrency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiber_PingPong(t *testing.T) {
	ctx := NewFiberContext()
	var trace []string

	f, err := ctx.Create(func(arg any) {
		trace = append(trace, arg.(string)+"1")
		assert.NoError(t, ctx.Switch(ctx.Main()))
		trace = append(trace, arg.(string)+"2")
	}, "fiber")
	require.NoError(t, err)

	require.NoError(t, ctx.Switch(f))
	trace = append(trace, "main1")
	assert.Same(t, ctx.Main(), ctx.Current())
	require.NoError(t, ctx.Switch(f))
	trace = append(trace, "main2")

	assert.Equal(t, []string{"fiber1", "main1", "fiber2", "main2"}, trace)
	assert.True(t, f.Finished())
	assert.ErrorIs(t, ctx.Switch(f), ErrFiberFinished)
}

func TestFiber_SwitchBetweenFibers(t *testing.T) {
	ctx := NewFiberContext()
	var trace []int
	var b *Fiber

	a, err := ctx.Create(func(any) {
		trace = append(trace, 1)
		assert.NoError(t, ctx.Switch(b))
		trace = append(trace, 3)
	}, nil)
	require.NoError(t, err)
	b, err = ctx.Create(func(any) {
		trace = append(trace, 2)
		assert.NoError(t, ctx.Switch(a))
	}, nil)
	require.NoError(t, err)

	// a finishes first and control returns to main while b stays suspended.
	require.NoError(t, ctx.Switch(a))

	assert.Equal(t, []int{1, 2, 3}, trace)
	assert.True(t, a.Finished())
	assert.False(t, b.Finished())
	require.NoError(t, ctx.Delete(b))
}

func TestFiber_DeleteSuspendedUnwinds(t *testing.T) {
	ctx := NewFiberContext()
	unwound := make(chan struct{})
	resumed := false

	f, err := ctx.Create(func(any) {
		defer close(unwound)
		assert.NoError(t, ctx.Switch(ctx.Main()))
		resumed = true
	}, nil)
	require.NoError(t, err)
	require.NoError(t, ctx.Switch(f))

	require.NoError(t, ctx.Delete(f))
	<-unwound

	assert.False(t, resumed)
	assert.ErrorIs(t, ctx.Switch(f), ErrFiberDeleted)
	assert.ErrorIs(t, ctx.Delete(f), ErrFiberDeleted)
}

func TestFiber_Misuse(t *testing.T) {
	ctx := NewFiberContext()
	other := NewFiberContext()
	foreign, err := other.Create(func(any) {}, nil)
	require.NoError(t, err)

	_, err = ctx.Create(nil, nil)
	assert.ErrorIs(t, err, ErrNilEntry)
	assert.ErrorIs(t, ctx.Switch(foreign), ErrFiberForeign)
	assert.ErrorIs(t, ctx.Delete(ctx.Main()), ErrFiberMain)
	assert.NoError(t, ctx.Switch(ctx.Current()))
}

func TestFiber_PanicReturnsToMain(t *testing.T) {
	ctx := NewFiberContext()
	f, err := ctx.Create(func(any) { panic("fiber failure") }, nil)
	require.NoError(t, err)

	require.NoError(t, ctx.Switch(f))

	assert.True(t, f.Finished())
	assert.ErrorIs(t, f.Err(), ErrPanic)
}
