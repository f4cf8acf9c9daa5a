package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// QuatFromScaledAxis builds the rotation whose axis is v normalized and
// whose angle is |v| radians. The zero vector maps to identity.
func QuatFromScaledAxis(v mgl32.Vec3) mgl32.Quat {
	angle := v.Len()
	if angle < 1e-8 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(angle, v.Mul(1/angle))
}

// QuatAxisAngle extracts the axis and angle of q with angle in [0, pi].
// q must be approximately unit length. Near-identity rotations return
// (+X, 0) so callers never divide by a vanishing sine.
func QuatAxisAngle(q mgl32.Quat) (mgl32.Vec3, float32) {
	// Canonicalize to the hemisphere with non-negative W so the angle
	// stays in [0, pi]
	if q.W < 0 {
		q = q.Scale(-1)
	}

	w := q.W
	if w > 1 {
		w = 1
	}

	angle := 2 * float32(math.Acos(float64(w)))
	s := float32(math.Sqrt(float64(1 - w*w)))
	if s < 1e-6 {
		return mgl32.Vec3{1, 0, 0}, 0
	}
	return q.V.Mul(1 / s), angle
}

// RelativeRotation returns the rotation carrying frame a onto frame b,
// i.e. RelativeRotation(a, b).Mul(a) == b up to normalization.
func RelativeRotation(a, b mgl32.Quat) mgl32.Quat {
	return b.Mul(a.Inverse()).Normalize()
}

// SwingTwist splits q into a twist about axis and the remaining swing so
// that q == swing * twist. axis must be unit length.
func SwingTwist(q mgl32.Quat, axis mgl32.Vec3) (swing, twist mgl32.Quat) {
	proj := axis.Mul(q.V.Dot(axis))
	twist = mgl32.Quat{W: q.W, V: proj}

	if twist.Len() < 1e-8 {
		// Pure 180-degree swing perpendicular to axis
		twist = mgl32.QuatIdent()
	} else {
		twist = twist.Normalize()
	}

	swing = q.Mul(twist.Inverse()).Normalize()
	return swing, twist
}

// Renormalized returns q scaled back to unit length; applied after any
// chain of three or more multiplications to bound drift.
func Renormalized(q mgl32.Quat) mgl32.Quat {
	return q.Normalize()
}
