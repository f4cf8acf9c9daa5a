package sim

import (
	"github.com/lixenwraith/protocell/genome"
)

// DivisionEvent mirrors one parent replacement for the presentation
// layer's id -> handle map.
type DivisionEvent struct {
	ParentIdx  int32
	ParentID   uint32
	ChildAIdx  int32
	ChildAID   uint32
	ChildBIdx  int32
	ChildBID   uint32
	ChildAMode int32
	ChildBMode int32
	Time       float32
}

// BreakEvent reports an adhesion slot freed by break force this tick.
type BreakEvent struct {
	Slot    int32
	CellAID uint32
	CellBID uint32
}

// Frame collects the events and aggregates of one tick. The driver owns
// one Frame and resets it per tick; slices are reused.
type Frame struct {
	Divisions []DivisionEvent
	Breaks    []BreakEvent

	// TransportedMass is the total nutrient volume moved across
	// adhesions this tick
	TransportedMass float32
}

// Reset clears the frame for the next tick without releasing capacity.
func (f *Frame) Reset() {
	f.Divisions = f.Divisions[:0]
	f.Breaks = f.Breaks[:0]
	f.TransportedMass = 0
}

// Step advances the state by one fixed tick ending at time now. The
// ordering below is normative; reordering breaks both determinism and the
// division/physics contract.
//
//	position -> rotation -> grid -> collision -> adhesion -> swim ->
//	boundary -> velocity -> angular velocity -> nutrients -> division
//
// Soft failures (capacity, invalid mode) are absorbed locally; Step never
// fails mid-tick.
func (s *State) Step(cfg *Config, g *genome.Genome, dt float32, tick uint64, now float32, fr *Frame) {
	s.integratePositions(dt)

	s.Grid.Rebuild(s.Pos, s.Count)

	s.clearForces()

	if !cfg.DisableCollisions {
		pairs := s.detectPairs()
		s.applyCollisionForces(cfg, pairs)
	}

	// Adhesion forces override collision: adhered pairs were skipped
	// above, the spring network is their only interaction
	s.applyAdhesionForces(g, fr)

	s.applySwimThrust(g, dt)
	s.applyBoundary(cfg)

	s.integrateVelocities(cfg, dt)
	s.integrateAngular(cfg, dt)

	s.stepNutrients(g, dt, fr)
	s.stepDivisions(g, now, tick, fr)
}
