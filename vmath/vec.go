package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SafeNormalize returns v normalized, or fallback when v is degenerate.
func SafeNormalize(v mgl32.Vec3, fallback mgl32.Vec3) mgl32.Vec3 {
	lenSq := v.LenSqr()
	if lenSq < 1e-12 {
		return fallback
	}
	return v.Mul(1 / float32(math.Sqrt(float64(lenSq))))
}

// Clamp32 bounds x to [lo, hi].
func Clamp32(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Pow32 is float32 exponentiation; used for timestep-invariant damping
// factors of the form base^(dt*100).
func Pow32(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		f := float64(v[i])
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
