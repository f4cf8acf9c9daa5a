package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/constants"
)

func TestNutrientGrowthClamped(t *testing.T) {
	var fr Frame
	s, g, _ := testState(t, 1)
	g.Modes[0].NutrientGainRate = 100 // absurdly fast on purpose
	g.Modes[0].SplitMass = 1.5

	idx := addCell(t, s, g, mgl32.Vec3{}, 1)
	split := s.SplitMass[idx]

	for i := 0; i < 64; i++ {
		s.stepNutrients(g, 1.0/64, &fr)
	}
	if s.Mass[idx] != 2*split {
		t.Errorf("Mass = %v, want clamp at 2*split_mass = %v", s.Mass[idx], 2*split)
	}
}

func TestNutrientRadiusTracksMass(t *testing.T) {
	var fr Frame
	s, g, _ := testState(t, 1)
	g.Modes[0].NutrientGainRate = 0.5
	g.Modes[0].MaxCellSize = 1.4
	g.Modes[0].SplitMass = 10

	idx := addCell(t, s, g, mgl32.Vec3{}, 1)
	s.stepNutrients(g, 0.5, &fr)

	if want := float32(1.25); s.Mass[idx] != want {
		t.Fatalf("Mass = %v, want %v", s.Mass[idx], want)
	}
	if s.Radius[idx] != 1.25 {
		t.Errorf("Radius = %v, want 1.25", s.Radius[idx])
	}

	s.stepNutrients(g, 1, &fr)
	if s.Radius[idx] != 1.4 {
		t.Errorf("Radius = %v, want capped at max_cell_size 1.4", s.Radius[idx])
	}
}

func TestNutrientTransportFlowsDownhill(t *testing.T) {
	var fr Frame
	s, g, _ := testState(t, 2)
	a := int32(addCell(t, s, g, mgl32.Vec3{-2, 0, 0}, 2))
	b := int32(addCell(t, s, g, mgl32.Vec3{2, 0, 0}, 1))
	if _, err := s.AddAdhesion(g, a, b, 0, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	before := s.Mass[a] + s.Mass[b]
	s.stepNutrients(g, 1.0/64, &fr)

	if s.Mass[a] >= 2 {
		t.Error("heavier cell did not donate")
	}
	if s.Mass[b] <= 1 {
		t.Error("lighter cell did not receive")
	}
	if diff := abs32(s.Mass[a] + s.Mass[b] - before); diff > 1e-5 {
		t.Errorf("transport not conservative: drift %v", diff)
	}
	if fr.TransportedMass <= 0 {
		t.Error("transported volume not accounted")
	}
}

func TestNutrientTransportHonorsPriority(t *testing.T) {
	var fr Frame
	s, g, _ := testState(t, 2)
	// Two modes: a low-priority bulk cell and a high-priority sink
	g.Modes = append(g.Modes, g.Modes[0])
	g.Modes[1].NutrientPriority = 9

	m0, _ := g.ModeAt(0)
	m1, _ := g.ModeAt(1)
	a, _ := s.AddCell(CellInit{Pos: mgl32.Vec3{-2, 0, 0}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(), Mass: 1, ModeIndex: 0}, m0, 0)
	b, _ := s.AddCell(CellInit{Pos: mgl32.Vec3{2, 0, 0}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(), Mass: 1, ModeIndex: 1}, m1, 0)
	if _, err := s.AddAdhesion(g, int32(a), int32(b), 0, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	s.stepNutrients(g, 1.0/64, &fr)

	// Equal masses, unequal priority: flow runs toward the priority cell
	if s.Mass[a] >= 1 || s.Mass[b] <= 1 {
		t.Errorf("masses = %v, %v; want flow toward the high-priority cell",
			s.Mass[a], s.Mass[b])
	}
}

func TestNutrientDonorFloorsAtMinMass(t *testing.T) {
	var fr Frame
	s, g, _ := testState(t, 2)
	a := int32(addCell(t, s, g, mgl32.Vec3{-2, 0, 0}, 0.5))
	b := int32(addCell(t, s, g, mgl32.Vec3{2, 0, 0}, 0.5))
	if _, err := s.AddAdhesion(g, a, b, 0, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	// Force an extreme priority imbalance; the donor still may not go
	// below the mass floor
	g.Modes = append(g.Modes, g.Modes[0])
	g.Modes[1].NutrientPriority = 1000
	s.ModeIndex[b] = 1

	for i := 0; i < 256; i++ {
		s.stepNutrients(g, 1.0/64, &fr)
	}
	if s.Mass[a] < constants.MinMass {
		t.Errorf("donor mass %v below floor %v", s.Mass[a], constants.MinMass)
	}
}

func TestNutrientLowMassBoost(t *testing.T) {
	var fr Frame
	s, g, _ := testState(t, 2)
	g.Modes[0].PrioritizeWhenLow = true

	a := int32(addCell(t, s, g, mgl32.Vec3{-2, 0, 0}, 1.0))
	b := int32(addCell(t, s, g, mgl32.Vec3{2, 0, 0}, 1.0))
	s.Mass[b] = 0.55 // below the low-mass threshold
	if _, err := s.AddAdhesion(g, a, b, 0, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	s.stepNutrients(g, 1.0/64, &fr)

	// With the boost the starving cell receives despite both sharing the
	// same base priority; without it the flow direction would match the
	// mass gradient anyway, so check magnitude dominance instead: the
	// boosted split sends most of the per-tick quota to b
	pi, pj := s.prio[a], s.prio[b]
	if pj != pi*constants.LowMassBoost {
		t.Errorf("boosted priority = %v, want %v", pj, pi*constants.LowMassBoost)
	}
	if s.Mass[b] <= 0.55 {
		t.Error("starving cell did not gain mass")
	}
}
