package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// PausableClock tracks wall time with pause accounting for interactive
// frontends. It feeds real frame deltas into Clock.Accumulate; while
// paused the delta stream freezes, so the fixed-step accumulator banks
// nothing. It never influences simulation arithmetic.
type PausableClock struct {
	mu sync.Mutex

	isPaused       atomic.Bool
	lastFrame      time.Time
	pauseStart     time.Time
	totalPausedDur time.Duration
}

func NewPausableClock() *PausableClock {
	return &PausableClock{lastFrame: time.Now()}
}

// FrameDelta returns the unpaused wall time elapsed since the previous
// call and rearms for the next frame. Returns zero while paused.
func (pc *PausableClock) FrameDelta() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := time.Now()
	if pc.isPaused.Load() {
		pc.lastFrame = now
		return 0
	}
	d := now.Sub(pc.lastFrame)
	pc.lastFrame = now
	return d
}

// Pause stops the delta stream.
func (pc *PausableClock) Pause() {
	if pc.isPaused.CompareAndSwap(false, true) {
		pc.mu.Lock()
		pc.pauseStart = time.Now()
		pc.mu.Unlock()
	}
}

// Resume continues the delta stream without replaying the paused span.
func (pc *PausableClock) Resume() {
	if pc.isPaused.CompareAndSwap(true, false) {
		pc.mu.Lock()
		if !pc.pauseStart.IsZero() {
			pc.totalPausedDur += time.Since(pc.pauseStart)
			pc.pauseStart = time.Time{}
		}
		pc.lastFrame = time.Now()
		pc.mu.Unlock()
	}
}

// IsPaused returns the current pause state.
func (pc *PausableClock) IsPaused() bool {
	return pc.isPaused.Load()
}

// TotalPaused returns the cumulative paused duration.
func (pc *PausableClock) TotalPaused() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	total := pc.totalPausedDur
	if pc.isPaused.Load() && !pc.pauseStart.IsZero() {
		total += time.Since(pc.pauseStart)
	}
	return total
}
