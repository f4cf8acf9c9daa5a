package sim

import (
	"github.com/lixenwraith/protocell/constants"
)

// Config carries the physics parameters shared by every cell. It is part
// of the initial state; editing any field invalidates replay.
type Config struct {
	// WorldSize is the side length of the cubic grid volume
	WorldSize float32 `json:"world_bounds"`

	// SphereRadius is the radius of the spherical boundary, concentric
	// with the grid volume
	SphereRadius float32 `json:"sphere_radius"`

	// GridDim is the per-axis bucket count of the spatial grid
	GridDim int `json:"grid_dim"`

	// DefaultStiffness is the collision spring constant used when both
	// cells report zero stiffness
	DefaultStiffness float32 `json:"default_stiffness"`

	// Damping is the collision spring damping coefficient
	Damping float32 `json:"damping"`

	// WallStiffness is the boundary penalty spring constant
	WallStiffness float32 `json:"wall_stiffness"`

	// FixedTimestep is the tick duration in seconds
	FixedTimestep float32 `json:"fixed_timestep"`

	// VelocityDamping and AngularDamping are per-second decay bases,
	// applied as base^(dt*100)
	VelocityDamping float32 `json:"velocity_damping"`
	AngularDamping  float32 `json:"angular_damping"`

	// FrictionCoefficient scales rolling-friction torque; 0 disables it
	FrictionCoefficient float32 `json:"friction_coefficient"`

	// DisableCollisions skips the collision step entirely (adhesions,
	// boundary and swim still apply)
	DisableCollisions bool `json:"disable_collisions"`
}

// DefaultConfig returns the reference parameter set.
func DefaultConfig() Config {
	return Config{
		WorldSize:           100,
		SphereRadius:        50,
		GridDim:             constants.DefaultGridDim,
		DefaultStiffness:    10,
		Damping:             0.3,
		WallStiffness:       100,
		FixedTimestep:       constants.DefaultFixedTimestep,
		VelocityDamping:     0.98,
		AngularDamping:      0.98,
		FrictionCoefficient: 0.3,
	}
}
