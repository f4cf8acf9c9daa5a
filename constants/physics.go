package constants

// Cell limits
const (
	// MinMass is the floor for any cell mass; growth, transport and swim
	// cost all clamp against it
	MinMass float32 = 0.5

	// MinRadius is the floor for the mass-driven radius mapping
	MinRadius float32 = 0.5

	// MaxAdhesionsPerCell is the fixed width of the per-cell adhesion
	// index table; connections past this are dropped
	MaxAdhesionsPerCell = 20
)

// Collision response
const (
	// MaxCollisionForce clamps the spring-damper force magnitude to
	// [-MaxCollisionForce, MaxCollisionForce]
	MaxCollisionForce float32 = 10000

	// ContactEpsilon guards degenerate contacts; below this separation
	// the contact normal falls back to +X
	ContactEpsilon float32 = 1e-4

	// TangentEpsilon is the minimum tangential speed for rolling
	// friction to engage
	TangentEpsilon float32 = 1e-4
)

// Adhesion zones
const (
	// ZoneEpsilon is cos(80 deg); anchors within the equatorial band
	// |anchor . split| <= ZoneEpsilon classify as zone C
	ZoneEpsilon float32 = 0.17364818
)

// Nutrients
const (
	// LowMassThreshold is the mass below which a prioritize-when-low
	// cell gets its priority boosted
	LowMassThreshold float32 = 0.6

	// LowMassBoost multiplies nutrient priority for starving cells
	LowMassBoost float32 = 10

	// TransportRate scales nutrient flow across an adhesion per second
	TransportRate float32 = 0.5

	// SwimCostRate converts swim thrust into mass drain per second
	SwimCostRate float32 = 0.01
)

// Division geometry
const (
	// SplitOffsetFraction of the parent radius separates the two
	// children along the split direction
	SplitOffsetFraction float32 = 0.1

	// AdheredSplitOffsetFraction replaces SplitOffsetFraction when the
	// parent carries active adhesions, reducing initial overlap with
	// neighbors
	AdheredSplitOffsetFraction float32 = 0.05

	// SiblingBirthDesync is subtracted from child B's birth time so
	// siblings never re-divide on the same tick
	SiblingBirthDesync float32 = 0.001
)

// RNG stream ids; fixed for replay compatibility
const (
	StreamSplitInterval uint32 = 0
	StreamSplitMass     uint32 = 1
)
