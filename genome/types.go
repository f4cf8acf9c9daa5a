// Package genome holds the user-authored cell genome: an ordered list of
// modes that drive appearance, division timing, growth, geometry and
// adhesion behavior. The genome is immutable input to the simulation core;
// editing a genome invalidates replay and forces a rebuild from the initial
// state.
package genome

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/vmath"
)

// CellType selects the specialized behavior of a mode.
type CellType int

const (
	CellNutrient CellType = iota
	CellFlagellocyte
	CellPhotocyte
	CellPhagocyte
)

// Color is an RGB triple with components in [0, 1], serialized as {x,y,z}.
type Color struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Quat is the serialized quaternion form {x,y,z,w}.
type Quat struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

// QuatIdent is the serialized identity rotation.
func QuatIdent() Quat {
	return Quat{W: 1}
}

// Mgl converts to an mgl32 quaternion, normalized to guard against
// hand-edited genome files.
func (q Quat) Mgl() mgl32.Quat {
	m := mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X, q.Y, q.Z}}
	if m.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	return m.Normalize()
}

// FromMgl converts an mgl32 quaternion to serialized form.
func FromMgl(m mgl32.Quat) Quat {
	return Quat{X: m.V[0], Y: m.V[1], Z: m.V[2], W: m.W}
}

// SplitDirection is the parent split axis as (pitch, yaw) degrees in the
// genome-local frame, mapping to the YXZ euler rotation applied to +Z.
type SplitDirection struct {
	PitchDeg float32 `json:"pitch_deg"`
	YawDeg   float32 `json:"yaw_deg"`
}

// Vector returns the unit split direction in the genome-local frame.
func (d SplitDirection) Vector() mgl32.Vec3 {
	return vmath.SplitDirection(d.PitchDeg, d.YawDeg)
}

// ChildSettings configures one of the two division products.
type ChildSettings struct {
	ModeNumber          int  `json:"mode_number"`
	Orientation         Quat `json:"orientation"`
	KeepAdhesion        bool `json:"keep_adhesion"`
	EnableAngleSnapping bool `json:"enable_angle_snapping"`
}

// AdhesionSettings are the spring-damper parameters of adhesions created
// while the owning cell is in this mode.
type AdhesionSettings struct {
	RestLength          float32 `json:"rest_length"`
	LinearStiffness     float32 `json:"linear_stiffness"`
	LinearDamping       float32 `json:"linear_damping"`
	OrientStiffness     float32 `json:"orient_stiffness"`
	OrientDamping       float32 `json:"orient_damping"`
	MaxAngularDeviation float32 `json:"max_angular_deviation"` // radians; error angle clamp
	EnableTwist         bool    `json:"enable_twist"`
	TwistStiffness      float32 `json:"twist_stiffness"`
	TwistDamping        float32 `json:"twist_damping"`
	BreakForce          float32 `json:"break_force"` // 0 = unbreakable
}

// Mode is one cell-type specification within a genome.
type Mode struct {
	// Identity
	Name     string   `json:"name"`
	Color    Color    `json:"color"`
	Opacity  float32  `json:"opacity"`
	Emissive float32  `json:"emissive"`
	CellType CellType `json:"cell_type"`

	// Timing; the *_min fields enable a deterministic per-cell uniform
	// draw in [min, base] when positive
	SplitInterval    float32 `json:"split_interval"`
	SplitIntervalMin float32 `json:"split_interval_min"`
	SplitMass        float32 `json:"split_mass"`
	SplitMassMin     float32 `json:"split_mass_min"`
	MaxSplits        int     `json:"max_splits"` // -1 = unlimited
	ModeAAfterSplits int     `json:"mode_a_after_splits"`
	ModeBAfterSplits int     `json:"mode_b_after_splits"`

	// Growth
	NutrientGainRate  float32 `json:"nutrient_gain_rate"`
	MaxCellSize       float32 `json:"max_cell_size"`
	SplitRatio        float32 `json:"split_ratio"`
	NutrientPriority  float32 `json:"nutrient_priority"`
	PrioritizeWhenLow bool    `json:"prioritize_when_low"`

	// Geometry
	ParentSplitDirection      SplitDirection `json:"parent_split_direction"`
	MaxAdhesions              int            `json:"max_adhesions"`
	MinAdhesions              int            `json:"min_adhesions"`
	EnableParentAngleSnapping bool           `json:"enable_parent_angle_snapping"`

	// Children
	ChildA ChildSettings `json:"child_a"`
	ChildB ChildSettings `json:"child_b"`

	// Adhesion
	ParentMakeAdhesion bool             `json:"parent_make_adhesion"`
	Adhesion           AdhesionSettings `json:"adhesion"`

	// Flagellum
	SwimForce float32 `json:"swim_force"` // [0, 1]
}

// Genome is an immutable, ordered mode list plus initial placement data.
type Genome struct {
	Name               string `json:"name"`
	InitialMode        int    `json:"initial_mode"`
	InitialOrientation Quat   `json:"initial_orientation"`
	Modes              []Mode `json:"modes"`
}

// ModeAt returns the mode at index i. Out-of-range indices report ok=false
// so callers can keep the cell's last valid mode instead of crashing the
// tick.
func (g *Genome) ModeAt(i int) (*Mode, bool) {
	if i < 0 || i >= len(g.Modes) {
		return nil, false
	}
	return &g.Modes[i], true
}
