package engine

import (
	"testing"
)

func TestClockAccumulate(t *testing.T) {
	c := NewClock(1.0 / 64)

	if n := c.Accumulate(1.0 / 128); n != 0 {
		t.Errorf("half a tick banked %d steps, want 0", n)
	}
	if n := c.Accumulate(1.0 / 128); n != 1 {
		t.Errorf("full tick yields %d steps, want 1", n)
	}
	if n := c.Accumulate(1.0); n != 64 {
		t.Errorf("one second yields %d steps, want 64", n)
	}
}

func TestClockPausedBanksNothing(t *testing.T) {
	c := NewClock(1.0 / 64)
	c.Paused = true
	if n := c.Accumulate(10); n != 0 {
		t.Errorf("paused clock yielded %d steps", n)
	}
	c.Paused = false
	// The paused span was dropped, not deferred
	if n := c.Accumulate(1.0 / 64); n != 1 {
		t.Errorf("after unpause got %d steps, want 1", n)
	}
}

func TestClockSpeed(t *testing.T) {
	c := NewClock(1.0 / 64)
	c.Speed = 2
	if n := c.Accumulate(0.5); n != 64 {
		t.Errorf("0.5 s at 2x yields %d steps, want 64", n)
	}
	c.Speed = 0
	if n := c.Accumulate(1); n != 0 {
		t.Errorf("zero speed yielded %d steps", n)
	}
}

func TestClockAdvanceAndRewind(t *testing.T) {
	c := NewClock(1.0 / 64)
	for i := 0; i < 64; i++ {
		c.Advance()
	}
	if c.Tick != 64 {
		t.Errorf("Tick = %d, want 64", c.Tick)
	}
	if diff := c.CurrentTime - 1; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("CurrentTime = %v, want ~1", c.CurrentTime)
	}

	c.Rewind()
	if c.Tick != 0 || c.CurrentTime != 0 {
		t.Errorf("rewind left tick=%d time=%v", c.Tick, c.CurrentTime)
	}
}

func TestClockStepCounts(t *testing.T) {
	c := NewClock(1.0 / 64)

	tests := []struct {
		target float32
		want   int
	}{
		{0, 0},
		{-1, 0},
		{1.0 / 64, 1},
		{1, 64},
		{1.001, 65}, // partial tick rounds up
	}
	for _, tc := range tests {
		if got := c.StepsTo(tc.target); got != tc.want {
			t.Errorf("StepsTo(%v) = %d, want %d", tc.target, got, tc.want)
		}
	}

	// StepsFrom counts only the remaining distance
	for i := 0; i < 32; i++ {
		c.Advance()
	}
	if got := c.StepsFrom(1); got != 32 {
		t.Errorf("StepsFrom(1) at t=0.5 = %d, want 32", got)
	}
	if got := c.StepsFrom(0.25); got != 0 {
		t.Errorf("StepsFrom(past) = %d, want 0", got)
	}
}

func TestClockZeroTimestepFallsBack(t *testing.T) {
	c := NewClock(0)
	if c.DtFixed <= 0 {
		t.Fatalf("DtFixed = %v, want positive default", c.DtFixed)
	}
}
