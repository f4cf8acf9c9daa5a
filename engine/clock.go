// Package engine drives the simulation core: the fixed-step clock, the
// live/scrub replay driver, and the double-buffered snapshot published to
// readers at tick boundaries. The engine owns the single mutable
// reference to the canonical state.
package engine

import (
	"math"

	"github.com/lixenwraith/protocell/constants"
)

// Clock converts wall-clock frame deltas into an integer number of fixed
// ticks. Simulation time only ever advances in DtFixed increments, so
// live stepping and scrub resimulation traverse the exact same time
// points.
type Clock struct {
	CurrentTime float32 // simulation seconds, advances DtFixed per tick
	Tick        uint64
	DtFixed     float32

	Speed  float64 // multiplier >= 0 applied to real time
	Paused bool

	accumulator float64
}

// NewClock creates a clock with the given fixed timestep; zero or
// negative falls back to the default 1/64 s.
func NewClock(dtFixed float32) Clock {
	if dtFixed <= 0 {
		dtFixed = constants.DefaultFixedTimestep
	}
	return Clock{DtFixed: dtFixed, Speed: 1}
}

// Accumulate banks a real frame delta and returns the number of fixed
// steps now due. Paused clocks bank nothing.
func (c *Clock) Accumulate(realDt float64) int {
	if c.Paused || c.Speed <= 0 || realDt <= 0 {
		return 0
	}
	c.accumulator += realDt * c.Speed
	n := int(c.accumulator / float64(c.DtFixed))
	c.accumulator -= float64(n) * float64(c.DtFixed)
	return n
}

// Advance moves the clock across one executed tick.
func (c *Clock) Advance() {
	c.Tick++
	c.CurrentTime += c.DtFixed
}

// Rewind resets the timeline to zero, dropping banked real time.
func (c *Clock) Rewind() {
	c.CurrentTime = 0
	c.Tick = 0
	c.accumulator = 0
}

// StepsTo returns the tick count needed to reach at least target seconds
// from time zero.
func (c *Clock) StepsTo(target float32) int {
	if target <= 0 {
		return 0
	}
	return int(math.Ceil(float64(target) / float64(c.DtFixed)))
}

// StepsFrom returns the tick count from the current time to at least
// target seconds; zero when the target is in the past.
func (c *Clock) StepsFrom(target float32) int {
	if target <= c.CurrentTime {
		return 0
	}
	return int(math.Ceil(float64(target-c.CurrentTime) / float64(c.DtFixed)))
}
