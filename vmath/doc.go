// Package vmath supplies the single-precision math helpers the simulation
// core needs on top of mgl32: scaled-axis quaternion construction, axis-angle
// extraction, swing/twist decomposition, the YXZ euler split-direction
// mapping, and the pure hash RNG that keeps randomized behavior replayable.
//
// Convention: quaternion multiplication is left-to-right "rotate-then",
// (qOuter.Mul(qInner)).Rotate(v) applies qInner first. Chains of three or
// more multiplications renormalize to bound drift.
package vmath
