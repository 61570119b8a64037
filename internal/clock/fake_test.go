package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestFakeAdvanceFiresDueTimersInOrder(t *testing.T) {
	c := NewFake(epoch)
	var fired []string

	c.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "late") })
	c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early") })
	c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early-second") })

	c.Advance(200 * time.Millisecond)
	require.Equal(t, []string{"early", "early-second"}, fired)
	require.Equal(t, epoch.Add(200*time.Millisecond), c.Now())
	require.Equal(t, 1, c.Pending())

	c.Advance(100 * time.Millisecond)
	require.Equal(t, []string{"early", "early-second", "late"}, fired)
	require.Zero(t, c.Pending())
}

func TestFakeTimerStopIsIdempotent(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	require.True(t, timer.Stop())
	require.False(t, timer.Stop())

	c.Advance(2 * time.Second)
	require.False(t, fired)
}

func TestFakeChainedTimersFireWithinWindow(t *testing.T) {
	c := NewFake(epoch)
	var at []time.Duration

	var step func()
	step = func() {
		at = append(at, c.Now().Sub(epoch))
		if len(at) < 3 {
			c.AfterFunc(250*time.Millisecond, step)
		}
	}
	c.AfterFunc(250*time.Millisecond, step)

	c.Advance(time.Second)
	require.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, 750 * time.Millisecond}, at)
	require.Equal(t, epoch.Add(time.Second), c.Now())
}

func TestFakeNegativeDelayFiresOnNextAdvance(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	c.AfterFunc(-time.Second, func() { fired = true })

	c.Advance(0)
	require.True(t, fired)
}

func TestRealClockAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
}
