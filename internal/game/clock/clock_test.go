package clock_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/armory/internal/game/clock"
)

func TestManager_FiresInDeadlineOrder(t *testing.T) {
	m := clock.NewManager()
	var order []string
	m.SetTimer(30*time.Millisecond, func() { order = append(order, "c") })
	m.SetTimer(10*time.Millisecond, func() { order = append(order, "a") })
	m.SetTimer(20*time.Millisecond, func() { order = append(order, "b") })

	assert.Equal(t, 3, m.Advance(50*time.Millisecond))
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 50*time.Millisecond, m.Now())
}

func TestManager_NowIsDeadlineDuringCallback(t *testing.T) {
	m := clock.NewManager()
	var seen time.Duration
	m.SetTimer(7*time.Millisecond, func() { seen = m.Now() })
	m.Advance(100 * time.Millisecond)
	assert.Equal(t, 7*time.Millisecond, seen)
}

func TestManager_ClearTimer_PreventsCallback(t *testing.T) {
	m := clock.NewManager()
	called := false
	h := m.SetTimer(5*time.Millisecond, func() { called = true })
	require.True(t, m.IsActive(h))
	assert.True(t, m.ClearTimer(h))
	assert.False(t, m.ClearTimer(h))
	m.Advance(time.Second)
	assert.False(t, called)
	assert.False(t, m.IsActive(h))
}

func TestManager_RearmFromCallbackRunsWithinWindow(t *testing.T) {
	m := clock.NewManager()
	var shots []time.Duration
	var fire func()
	fire = func() {
		shots = append(shots, m.Now())
		if len(shots) < 4 {
			m.SetTimer(100*time.Millisecond, fire)
		}
	}
	m.SetTimer(0, fire)
	m.Advance(250 * time.Millisecond)
	assert.Equal(t, []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}, shots)
	m.Advance(100 * time.Millisecond)
	assert.Len(t, shots, 4)
}

func TestManager_Remaining(t *testing.T) {
	m := clock.NewManager()
	h := m.SetTimer(40*time.Millisecond, func() {})
	m.Advance(15 * time.Millisecond)
	rem, ok := m.Remaining(h)
	require.True(t, ok)
	assert.Equal(t, 25*time.Millisecond, rem)
	next, ok := m.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, 25*time.Millisecond, next)
}

func TestProperty_Manager_ClearedTimersNeverFire(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := clock.NewManager()
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		fired := make([]bool, n)
		handles := make([]clock.Handle, n)
		for i := 0; i < n; i++ {
			i := i
			d := time.Duration(rapid.IntRange(0, 1000).Draw(rt, "delay")) * time.Millisecond
			handles[i] = m.SetTimer(d, func() { fired[i] = true })
		}
		cleared := make([]bool, n)
		for i := range handles {
			if rapid.Bool().Draw(rt, "clear") {
				m.ClearTimer(handles[i])
				cleared[i] = true
			}
		}
		m.Advance(2 * time.Second)
		for i := range fired {
			if cleared[i] && fired[i] {
				rt.Fatalf("timer %d fired after ClearTimer", i)
			}
			if !cleared[i] && !fired[i] {
				rt.Fatalf("timer %d never fired", i)
			}
		}
	})
}

func TestLoop_PostRunsOnLoopAndAdvances(t *testing.T) {
	m := clock.NewManager()
	loop := clock.NewLoop(m, 2*time.Millisecond, zaptest.NewLogger(t))

	var frames atomic.Int32
	loop.OnFrame(func(time.Duration) { frames.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var fired atomic.Bool
	require.NoError(t, loop.Post(ctx, func() {
		m.SetTimer(5*time.Millisecond, func() { fired.Store(true) })
	}))

	assert.Eventually(t, fired.Load, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return frames.Load() > 0 }, time.Second, time.Millisecond)

	loop.Stop()
	require.NoError(t, <-done)
	assert.ErrorIs(t, loop.Post(context.Background(), func() {}), clock.ErrLoopStopped)
}
