package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 held as raw bits in a uint64 so access goes
// through the integer atomics. The zero value reads as 0.
type AtomicFloat struct {
	bits atomic.Uint64
}

func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *AtomicFloat) Set(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// Add accumulates delta under a CAS loop; float addition has no native
// atomic form.
func (f *AtomicFloat) Add(delta float64) {
	for {
		old := f.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if f.bits.CompareAndSwap(old, next) {
			return
		}
	}
}
