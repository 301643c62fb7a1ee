package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClock_NewTimer(t *testing.T) {
	clock := RealClock{}
	start := clock.Now()
	timer := clock.NewTimer(5 * time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
	assert.GreaterOrEqual(t, clock.Since(start), 5*time.Millisecond)
}

func TestMockClock_TimerFiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	timer := clock.NewTimer(20 * time.Millisecond)
	require.Equal(t, 1, clock.PendingTimers())

	clock.Advance(10 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	clock.Advance(10 * time.Millisecond)
	select {
	case got := <-timer.C():
		assert.Equal(t, start.Add(20*time.Millisecond), got)
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	assert.Equal(t, 0, clock.PendingTimers())
	assert.False(t, timer.Stop(), "fired timer is no longer active")
}

func TestMockClock_StoppedTimerNeverFires(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(time.Millisecond)
	assert.True(t, timer.Stop())
	clock.Advance(time.Second)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
	assert.Equal(t, 0, clock.PendingTimers())
}

func TestMockClock_SleepAdvances(t *testing.T) {
	start := time.Unix(100, 0)
	clock := NewMockClock(start)
	clock.Sleep(250 * time.Millisecond)
	clock.Sleep(50 * time.Millisecond)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 50 * time.Millisecond}, clock.Sleeps())
	assert.Equal(t, 300*time.Millisecond, clock.Since(start))
}
