package vmath

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SplitDirectionQuat converts a (pitch, yaw) pair in degrees to the YXZ
// euler rotation used for genome split directions: yaw about Y, then pitch
// about X, zero roll.
func SplitDirectionQuat(pitchDeg, yawDeg float32) mgl32.Quat {
	return mgl32.AnglesToQuat(
		mgl32.DegToRad(yawDeg),
		mgl32.DegToRad(pitchDeg),
		0,
		mgl32.YXZ,
	)
}

// SplitDirection maps a (pitch, yaw) pair in degrees to the unit split
// direction in the genome-local frame, defined as the YXZ euler rotation
// applied to +Z.
func SplitDirection(pitchDeg, yawDeg float32) mgl32.Vec3 {
	return SplitDirectionQuat(pitchDeg, yawDeg).Rotate(mgl32.Vec3{0, 0, 1})
}
