package concurrency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutex_LockUnlock(t *testing.T) {
	m := NewMutex(nil)
	counter := 0

	require.NoError(t, m.Lock())
	counter++
	assert.True(t, m.Held())
	require.NoError(t, m.Unlock())

	assert.Equal(t, 1, counter)
	assert.False(t, m.Held())
}

func TestMutex_UnlockWithoutLock(t *testing.T) {
	m := NewMutex(nil)

	assert.ErrorIs(t, m.Unlock(), ErrNotLocked)
}

func TestMutex_MutualExclusion(t *testing.T) {
	m := NewMutex(nil)
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				assert.NoError(t, m.Lock())
				counter++
				assert.NoError(t, m.Unlock())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8000, counter)
}

func TestMutex_Destroy(t *testing.T) {
	m := NewMutex(nil)

	require.NoError(t, m.Destroy())

	assert.ErrorIs(t, m.Lock(), ErrDestroyed)
	assert.ErrorIs(t, m.Destroy(), ErrDestroyed)
}

func TestMutex_DestroyWaitsForHolder(t *testing.T) {
	m := NewMutex(nil)
	require.NoError(t, m.Lock())

	destroyed := make(chan error)
	go func() { destroyed <- m.Destroy() }()

	select {
	case <-destroyed:
		t.Fatal("Destroy returned while the mutex was held")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, m.Unlock())
	assert.NoError(t, <-destroyed)
}

func TestNewCond_NilMutex(t *testing.T) {
	_, err := NewCond(nil)

	assert.ErrorIs(t, err, ErrNilMutex)
}

func TestCond_WaitSignal(t *testing.T) {
	m := NewMutex(nil)
	c, err := NewCond(m)
	require.NoError(t, err)
	shared := 0

	waiter, err := CreateThread(func(any) any {
		assert.NoError(t, m.Lock())
		for shared == 0 {
			assert.NoError(t, c.Wait())
		}
		shared++
		assert.NoError(t, m.Unlock())
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, m.Lock())
	shared = 1
	require.NoError(t, c.Signal())
	require.NoError(t, m.Unlock())

	_, err = waiter.Join()
	require.NoError(t, err)
	assert.Equal(t, 2, shared)
}

func TestCond_Broadcast(t *testing.T) {
	m := NewMutex(nil)
	c, err := NewCond(m)
	require.NoError(t, err)
	shared := 0

	threads := make([]*Thread, 3)
	for i := range threads {
		threads[i], err = CreateThread(func(any) any {
			assert.NoError(t, m.Lock())
			for shared == 0 {
				assert.NoError(t, c.Wait())
			}
			shared++
			assert.NoError(t, m.Unlock())
			return nil
		}, nil, nil)
		require.NoError(t, err)
	}

	require.NoError(t, m.Lock())
	shared = 1
	require.NoError(t, c.Broadcast())
	require.NoError(t, m.Unlock())

	for _, th := range threads {
		_, err := th.Join()
		require.NoError(t, err)
	}
	assert.Equal(t, 4, shared)
}

func TestCond_WaitWithoutLock(t *testing.T) {
	c, err := NewCond(NewMutex(nil))
	require.NoError(t, err)

	assert.ErrorIs(t, c.Wait(), ErrNotLocked)
}

func TestCond_DestroyWakesWaiters(t *testing.T) {
	m := NewMutex(nil)
	c, err := NewCond(m)
	require.NoError(t, err)

	result := make(chan error)
	go func() {
		_ = m.Lock()
		for {
			if err := c.Wait(); err != nil {
				_ = m.Unlock()
				result <- err
				return
			}
		}
	}()

	// Whether the waiter is already parked or not, it must observe the
	// destruction.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Destroy())

	assert.ErrorIs(t, <-result, ErrDestroyed)
	assert.ErrorIs(t, c.Signal(), ErrDestroyed)
	assert.ErrorIs(t, c.Broadcast(), ErrDestroyed)
}

func TestSemaphore_PostWait(t *testing.T) {
	s, err := NewSemaphore(0, 0)
	require.NoError(t, err)

	require.NoError(t, s.Post())
	assert.Equal(t, int64(1), s.Value())
	require.NoError(t, s.Wait(context.Background()))
	assert.Equal(t, int64(0), s.Value())
}

func TestSemaphore_ThreadSync(t *testing.T) {
	s, err := NewSemaphore(0, 0)
	require.NoError(t, err)
	value := 0

	th, err := CreateThread(func(any) any {
		assert.NoError(t, s.Wait(context.Background()))
		value++
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Post())
	_, err = th.Join()
	require.NoError(t, err)

	assert.Equal(t, 1, value)
}

func TestSemaphore_Bounds(t *testing.T) {
	testCases := []struct {
		name    string
		initial int64
		max     int64
		wantErr bool
	}{
		{name: "empty", initial: 0, max: 4},
		{name: "full", initial: 4, max: 4},
		{name: "default max", initial: 10, max: 0},
		{name: "negative initial", initial: -1, max: 4, wantErr: true},
		{name: "initial above max", initial: 5, max: 4, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSemaphore(tc.initial, tc.max)

			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSemaphore)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.initial, s.Value())
		})
	}
}

func TestSemaphore_Overflow(t *testing.T) {
	s, err := NewSemaphore(1, 2)
	require.NoError(t, err)

	require.NoError(t, s.Post())
	assert.ErrorIs(t, s.Post(), ErrSemaphoreOverflow)
	assert.Equal(t, int64(2), s.Value())
}

func TestSemaphore_TryWait(t *testing.T) {
	s, err := NewSemaphore(1, 0)
	require.NoError(t, err)

	assert.True(t, s.TryWait())
	assert.False(t, s.TryWait())
}

func TestSemaphore_WaitHonoursContext(t *testing.T) {
	s, err := NewSemaphore(0, 0)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}

func TestSemaphore_DestroyReleasesWaiters(t *testing.T) {
	s, err := NewSemaphore(0, 0)
	require.NoError(t, err)
	result := make(chan error)
	go func() { result <- s.Wait(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Destroy())

	assert.ErrorIs(t, <-result, ErrDestroyed)
	assert.ErrorIs(t, s.Post(), ErrDestroyed)
	assert.ErrorIs(t, s.Destroy(), ErrDestroyed)
}

func TestMutex_InvariantCheckRuns(t *testing.T) {
	calls := 0
	m := NewMutex(func() { calls++ })

	require.NoError(t, m.Lock())
	require.NoError(t, m.Unlock())
	assert.Equal(t, 2, calls)

	broken := NewMutex(func() { panic("invariant violated") })
	assert.Panics(t, func() { _ = broken.Lock() })
}

func TestMutex_UnlockFromOtherGoroutine(t *testing.T) {
	m := NewMutex(nil)
	require.NoError(t, m.Lock())

	done := make(chan error, 1)
	go func() { done <- m.Unlock() }()
	require.NoError(t, <-done)
	assert.False(t, m.Held())

	require.NoError(t, m.Lock())
	require.NoError(t, m.Unlock())
}
