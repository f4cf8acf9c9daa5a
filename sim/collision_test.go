package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/genome"
)

// stepN runs n fixed ticks at the default timestep.
func stepN(s *State, cfg *Config, g *genome.Genome, n int) (uint64, float32) {
	var fr Frame
	var tick uint64
	var now float32
	for i := 0; i < n; i++ {
		tick++
		now += cfg.FixedTimestep
		fr.Reset()
		s.Step(cfg, g, cfg.FixedTimestep, tick, now, &fr)
	}
	return tick, now
}

func TestCollisionSeparatesOverlap(t *testing.T) {
	s, g, cfg := testState(t, 2)

	// Two unit cells overlapping by half a radius
	addCell(t, s, g, mgl32.Vec3{-0.75, 0, 0}, 1)
	addCell(t, s, g, mgl32.Vec3{0.75, 0, 0}, 1)

	stepN(s, &cfg, g, 64) // one simulated second

	d := s.Pos[1].Sub(s.Pos[0]).Len()
	if d < s.Radius[0]+s.Radius[1]-0.05 {
		t.Fatalf("cells still overlapping after 1 s: distance %v, radii sum %v",
			d, s.Radius[0]+s.Radius[1])
	}
	if err := s.CheckFinite(); err != nil {
		t.Fatal(err)
	}
}

func TestCollisionSymmetric(t *testing.T) {
	s, g, cfg := testState(t, 2)
	addCell(t, s, g, mgl32.Vec3{-0.75, 0, 0}, 1)
	addCell(t, s, g, mgl32.Vec3{0.75, 0, 0}, 1)

	stepN(s, &cfg, g, 64)

	// Equal masses, mirror-symmetric setup: displacement must mirror too
	if diff := abs32(s.Pos[0].X() + s.Pos[1].X()); diff > 1e-3 {
		t.Errorf("asymmetric separation: x0 = %v, x1 = %v", s.Pos[0].X(), s.Pos[1].X())
	}
	if abs32(s.Pos[0].Y()) > 1e-5 || abs32(s.Pos[0].Z()) > 1e-5 {
		t.Errorf("off-axis drift: %v", s.Pos[0])
	}
}

func TestCollisionNewtonThirdLaw(t *testing.T) {
	s, g, cfg := testState(t, 2)
	addCell(t, s, g, mgl32.Vec3{-0.6, 0.1, 0}, 1)
	addCell(t, s, g, mgl32.Vec3{0.6, -0.1, 0}, 1.5)

	s.Grid.Rebuild(s.Pos, s.Count)
	s.clearForces()
	pairs := s.detectPairs()
	if len(pairs) != 1 {
		t.Fatalf("pair count = %d, want 1", len(pairs))
	}
	s.applyCollisionForces(&cfg, pairs)

	sum := s.Force[0].Add(s.Force[1])
	if sum.Len() > 1e-3 {
		t.Errorf("force sum = %v, want ~0", sum)
	}
}

func TestCollisionForceClamped(t *testing.T) {
	s, g, cfg := testState(t, 2)

	// Near-total overlap with huge stiffness
	addCell(t, s, g, mgl32.Vec3{-0.01, 0, 0}, 1)
	addCell(t, s, g, mgl32.Vec3{0.01, 0, 0}, 1)
	s.Stiffness[0] = 1e9
	s.Stiffness[1] = 1e9

	s.Grid.Rebuild(s.Pos, s.Count)
	s.clearForces()
	s.applyCollisionForces(&cfg, s.detectPairs())

	if f := s.Force[0].Len(); f > 10000.01 {
		t.Errorf("force magnitude = %v, want clamped at 10000", f)
	}
}

func TestCollisionSkipsAdheredPair(t *testing.T) {
	s, g, cfg := testState(t, 2)
	a := addCell(t, s, g, mgl32.Vec3{-0.75, 0, 0}, 1)
	b := addCell(t, s, g, mgl32.Vec3{0.75, 0, 0}, 1)

	if _, err := s.AddAdhesion(g, int32(a), int32(b), 0,
		mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	s.Grid.Rebuild(s.Pos, s.Count)
	s.clearForces()
	s.applyCollisionForces(&cfg, s.detectPairs())

	if s.Force[a].Len() != 0 || s.Force[b].Len() != 0 {
		t.Errorf("collision force applied to adhered pair: %v, %v", s.Force[a], s.Force[b])
	}
}

func TestCombinedStiffness(t *testing.T) {
	tests := []struct {
		ka, kb, def float32
		want        float32
	}{
		{10, 10, 5, 5},  // harmonic mean of equals is half
		{10, 0, 5, 10},  // fall back to the non-zero side
		{0, 20, 5, 20},
		{0, 0, 5, 5},    // both zero: config default
	}
	for _, tc := range tests {
		if got := combinedStiffness(tc.ka, tc.kb, tc.def); got != tc.want {
			t.Errorf("combinedStiffness(%v, %v, %v) = %v, want %v",
				tc.ka, tc.kb, tc.def, got, tc.want)
		}
	}
}

func TestRollingFrictionOpposesTangentialMotion(t *testing.T) {
	s, g, cfg := testState(t, 2)
	a := addCell(t, s, g, mgl32.Vec3{-0.9, 0, 0}, 1)
	b := addCell(t, s, g, mgl32.Vec3{0.9, 0, 0}, 1)

	// b slides upward across the contact
	s.Vel[b] = mgl32.Vec3{0, 2, 0}

	s.Grid.Rebuild(s.Pos, s.Count)
	s.clearForces()
	s.applyCollisionForces(&cfg, s.detectPairs())

	if s.Torque[a].Len() == 0 || s.Torque[b].Len() == 0 {
		t.Fatal("no friction torque on sliding contact")
	}

	// Torque on a should spin it to roll with b's motion: axis ~ -Z
	if s.Torque[a].Z() >= 0 {
		t.Errorf("torque on a = %v, want negative z component", s.Torque[a])
	}
}
