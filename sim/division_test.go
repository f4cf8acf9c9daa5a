package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/genome"
)

// divGenome returns a genome whose single mode divides after interval
// seconds at splitMass.
func divGenome(interval, splitMass float32) *genome.Genome {
	m := genome.DefaultMode()
	m.SplitInterval = interval
	m.SplitMass = splitMass
	m.NutrientGainRate = 0
	m.ParentMakeAdhesion = false
	return &genome.Genome{
		Name:               "divider",
		InitialOrientation: genome.QuatIdent(),
		Modes:              []genome.Mode{m},
	}
}

func TestDivisionReplacesParent(t *testing.T) {
	cfg := DefaultConfig()
	g := divGenome(1, 1.5)
	s := NewState(8, 5, &cfg)

	m := &g.Modes[0]
	idx, err := s.AddCell(CellInit{
		Pos: mgl32.Vec3{}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(),
		Mass: 2, Stiffness: 10,
	}, m, 0)
	if err != nil {
		t.Fatal(err)
	}
	parentID := s.CellID[idx]

	var fr Frame
	now := float32(0)
	var tick uint64
	for now < 2 {
		tick++
		now += cfg.FixedTimestep
		fr.Reset()
		s.Step(&cfg, g, cfg.FixedTimestep, tick, now, &fr)
		if len(fr.Divisions) > 0 {
			break
		}
	}

	if len(fr.Divisions) != 1 {
		t.Fatalf("no division within 2 s (count = %d)", s.Count)
	}
	ev := fr.Divisions[0]

	if ev.ParentID != parentID {
		t.Errorf("ParentID = %d, want %d", ev.ParentID, parentID)
	}
	if ev.ChildAIdx != int32(idx) {
		t.Errorf("child A at index %d, want parent slot %d", ev.ChildAIdx, idx)
	}
	if s.Count != 2 {
		t.Errorf("Count = %d, want 2", s.Count)
	}

	// Fresh ids for both children; the parent id retires
	ids := map[uint32]bool{parentID: true}
	for i := 0; i < s.Count; i++ {
		id := s.CellID[i]
		if ids[id] {
			t.Errorf("cell id %d reused", id)
		}
		ids[id] = true
	}

	// Mass splits by the ratio; total conserved at division time
	total := s.Mass[ev.ChildAIdx] + s.Mass[ev.ChildBIdx]
	if diff := abs32(total - 2); diff > 1e-4 {
		t.Errorf("children mass sum = %v, want 2", total)
	}
}

// TestDivisionAgeGateBoundary: a growth-fed cell with a 1 s interval
// divides once per interval, never on the tick where its age equals the
// interval exactly. The sibling birth desync then lands the children's
// divisions on consecutive ticks instead of a shared one.
func TestDivisionAgeGateBoundary(t *testing.T) {
	cfg := DefaultConfig()
	g := divGenome(1, 1.5)
	g.Modes[0].NutrientGainRate = 1

	s := NewState(16, 5, &cfg)
	m := &g.Modes[0]
	s.AddCell(CellInit{
		Pos: mgl32.Vec3{}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(),
		Mass: 1, Stiffness: 10,
	}, m, 0)

	var fr Frame
	perTick := map[uint64]int{}
	firstGen := 0
	now := float32(0)
	for tick := uint64(1); tick <= 129; tick++ {
		now += cfg.FixedTimestep
		fr.Reset()
		s.Step(&cfg, g, cfg.FixedTimestep, tick, now, &fr)
		if len(fr.Divisions) > 0 {
			perTick[tick] = len(fr.Divisions)
		}
		if tick == 127 {
			firstGen = s.Count
		}
	}

	// Age equals the interval exactly at tick 64; the division waits one
	// more tick
	if perTick[64] != 0 {
		t.Errorf("%d division(s) on the exact-age tick 64, want 0", perTick[64])
	}
	if perTick[65] != 1 {
		t.Errorf("first division at tick 65 = %d events, want 1", perTick[65])
	}
	if firstGen != 2 {
		t.Errorf("cells after the first generation = %d, want 2", firstGen)
	}

	// Child B's birth is desynced 0.001 s earlier, so it clears the gate
	// at tick 128 while its twin (born exactly on the interval boundary)
	// waits for tick 129
	if perTick[128] != 1 || perTick[129] != 1 {
		t.Errorf("sibling divisions at ticks 128/129 = %d/%d events, want 1/1",
			perTick[128], perTick[129])
	}
	if len(perTick) != 3 {
		t.Errorf("division ticks = %v, want exactly ticks 65, 128, 129", perTick)
	}
	if s.Count != 4 {
		t.Errorf("Count = %d, want 4", s.Count)
	}
}

func TestDivisionEligibilityGates(t *testing.T) {
	cfg := DefaultConfig()
	g := divGenome(1, 1.5)
	s := NewState(4, 5, &cfg)

	m := &g.Modes[0]
	idx, _ := s.AddCell(CellInit{
		Pos: mgl32.Vec3{}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(),
		Mass: 2, Stiffness: 10,
	}, m, 0)

	// Too young
	if s.divisionEligible(g, idx, 0.5) {
		t.Error("eligible before split interval elapsed")
	}
	// Old enough but too light
	s.Mass[idx] = 1.0
	if s.divisionEligible(g, idx, 2) {
		t.Error("eligible below split mass")
	}
	s.Mass[idx] = 2

	// Requires neighbors it does not have
	g.Modes[0].MinAdhesions = 1
	if s.divisionEligible(g, idx, 2) {
		t.Error("eligible below min adhesion count")
	}
	g.Modes[0].MinAdhesions = 0

	// Split budget spent
	g.Modes[0].MaxSplits = 1
	s.SplitCount[idx] = 1
	if s.divisionEligible(g, idx, 2) {
		t.Error("eligible past max splits")
	}
	g.Modes[0].MaxSplits = -1
	if !s.divisionEligible(g, idx, 2) {
		t.Error("max_splits -1 should never gate")
	}
}

func TestDivisionSiblingAdhesion(t *testing.T) {
	cfg := DefaultConfig()
	g := divGenome(0.1, 1)
	g.Modes[0].ParentMakeAdhesion = true
	s := NewState(4, 5, &cfg)

	m := &g.Modes[0]
	s.AddCell(CellInit{
		Pos: mgl32.Vec3{}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(),
		Mass: 2, Stiffness: 10,
	}, m, 0)

	var fr Frame
	now := float32(0)
	var tick uint64
	for now < 1 && len(fr.Divisions) == 0 {
		tick++
		now += cfg.FixedTimestep
		fr.Reset()
		s.Step(&cfg, g, cfg.FixedTimestep, tick, now, &fr)
	}
	if len(fr.Divisions) != 1 {
		t.Fatal("no division")
	}
	ev := fr.Divisions[0]

	if !s.adhered(ev.ChildAIdx, ev.ChildBIdx) {
		t.Fatal("siblings not adhered after parent_make_adhesion division")
	}

	// Sibling anchors lie on the split axis: +s on A, -s on B, conjugated
	// by the child orientation deltas (identity here)
	ad := &s.Adhesions[0]
	sLocal := g.Modes[0].ParentSplitDirection.Vector()
	if d := ad.AnchorA.Sub(sLocal).Len(); d > 1e-5 {
		t.Errorf("anchor A = %v, want %v", ad.AnchorA, sLocal)
	}
	if d := ad.AnchorB.Add(sLocal).Len(); d > 1e-5 {
		t.Errorf("anchor B = %v, want %v", ad.AnchorB, sLocal.Mul(-1))
	}
}

// TestDivisionAnchorConjugation checks the inheritance rule
// anchor_child = delta^-1 * anchor_parent.
func TestDivisionAnchorConjugation(t *testing.T) {
	cfg := DefaultConfig()
	g := divGenome(0.1, 1)
	g.Modes[0].ParentMakeAdhesion = false

	// Child A keeps a distinct orientation delta and inherits zone A links
	delta := genome.FromMgl(mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0}))
	g.Modes[0].ChildA.Orientation = delta
	g.Modes[0].ChildB.KeepAdhesion = false

	s := NewState(8, 5, &cfg)
	m := &g.Modes[0]

	parent, _ := s.AddCell(CellInit{
		Pos: mgl32.Vec3{}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(),
		Mass: 2, Stiffness: 10,
	}, m, 0)
	// Neighbor far along -Z so its anchor on the parent sits in zone A
	// (split direction is +Z by default)
	neighbor, _ := s.AddCell(CellInit{
		Pos: mgl32.Vec3{0, 0, -4}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(),
		Mass: 0.5, Stiffness: 10,
	}, m, 0)

	parentAnchor := mgl32.Vec3{0, 0, -1}
	if _, err := s.AddAdhesion(g, int32(parent), int32(neighbor), 0,
		parentAnchor, mgl32.Vec3{0, 0, 1}); err != nil {
		t.Fatal(err)
	}
	if got := s.Adhesions[0].ZoneTagA; got != ZoneA {
		t.Fatalf("parent-side zone = %v, want ZoneA", got)
	}

	var fr Frame
	now := float32(0)
	var tick uint64
	for now < 1 && len(fr.Divisions) == 0 {
		tick++
		now += cfg.FixedTimestep
		fr.Reset()
		s.Step(&cfg, g, cfg.FixedTimestep, tick, now, &fr)
	}
	if len(fr.Divisions) != 1 {
		t.Fatal("no division")
	}
	ev := fr.Divisions[0]

	if !s.adhered(ev.ChildAIdx, int32(neighbor)) {
		t.Fatal("child A did not inherit the zone A adhesion")
	}
	if s.adhered(ev.ChildBIdx, int32(neighbor)) {
		t.Error("child B inherited a zone A adhesion")
	}

	var inherited *Adhesion
	for slot := 0; slot < s.AdhesionHigh; slot++ {
		ad := &s.Adhesions[slot]
		if ad.Active && (ad.CellA == ev.ChildAIdx || ad.CellB == ev.ChildAIdx) {
			inherited = ad
			break
		}
	}
	if inherited == nil {
		t.Fatal("inherited adhesion not found")
	}

	childAnchor := inherited.AnchorA
	otherAnchor := inherited.AnchorB
	if inherited.CellB == ev.ChildAIdx {
		childAnchor, otherAnchor = otherAnchor, childAnchor
	}

	want := delta.Mgl().Inverse().Rotate(parentAnchor)
	if d := childAnchor.Sub(want).Len(); d > 1e-5 {
		t.Errorf("inherited anchor = %v, want conjugated %v", childAnchor, want)
	}
	if d := otherAnchor.Sub(mgl32.Vec3{0, 0, 1}).Len(); d > 1e-5 {
		t.Errorf("neighbor anchor changed: %v", otherAnchor)
	}
}

func TestDivisionModeSubstitutionAfterMaxSplits(t *testing.T) {
	cfg := DefaultConfig()
	g := divGenome(0.1, 1)
	second := genome.DefaultMode()
	second.Name = "terminal"
	second.SplitInterval = 1e9
	second.SplitMass = 1e9
	g.Modes = append(g.Modes, second)

	g.Modes[0].MaxSplits = 1
	g.Modes[0].ModeAAfterSplits = 1
	g.Modes[0].ModeBAfterSplits = 1

	s := NewState(4, 5, &cfg)
	m := &g.Modes[0]
	s.AddCell(CellInit{
		Pos: mgl32.Vec3{}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(),
		Mass: 2, Stiffness: 10,
	}, m, 0)

	var fr Frame
	now := float32(0)
	var tick uint64
	for now < 1 && len(fr.Divisions) == 0 {
		tick++
		now += cfg.FixedTimestep
		fr.Reset()
		s.Step(&cfg, g, cfg.FixedTimestep, tick, now, &fr)
	}
	if len(fr.Divisions) != 1 {
		t.Fatal("no division")
	}
	ev := fr.Divisions[0]
	if ev.ChildAMode != 1 || ev.ChildBMode != 1 {
		t.Errorf("child modes = %d, %d, want both 1 after split budget", ev.ChildAMode, ev.ChildBMode)
	}
}

func TestDivisionAtCapacityDeferred(t *testing.T) {
	cfg := DefaultConfig()
	g := divGenome(0.1, 1)
	s := NewState(1, 5, &cfg)

	m := &g.Modes[0]
	s.AddCell(CellInit{
		Pos: mgl32.Vec3{}, Rot: mgl32.QuatIdent(), GenomeRot: mgl32.QuatIdent(),
		Mass: 2, Stiffness: 10,
	}, m, 0)

	var fr Frame
	now := float32(0)
	for tick := uint64(1); tick <= 64; tick++ {
		now += cfg.FixedTimestep
		fr.Reset()
		s.Step(&cfg, g, cfg.FixedTimestep, tick, now, &fr)
		if len(fr.Divisions) != 0 {
			t.Fatal("division executed with no free slot")
		}
	}
	if s.Count != 1 {
		t.Errorf("Count = %d, want 1", s.Count)
	}
}

func TestPlanChildSlots(t *testing.T) {
	cfg := DefaultConfig()
	g := testGenome()
	s := NewState(6, 5, &cfg)
	for i := 0; i < 3; i++ {
		addCell(t, s, g, mgl32.Vec3{float32(i) * 3, 0, 0}, 1)
	}

	assigned := s.planChildSlots([]int32{0, 2})
	if len(assigned) != 2 {
		t.Fatalf("assignments = %d, want 2", len(assigned))
	}
	// Free slots 3..5 hand out in ascending rank order
	if assigned[0] != 3 || assigned[1] != 4 {
		t.Errorf("assigned = %v, want [3 4]", assigned)
	}

	// Over-subscription: only one free slot for two parents
	s2 := NewState(4, 5, &cfg)
	for i := 0; i < 3; i++ {
		addCell(t, s2, g, mgl32.Vec3{float32(i) * 3, 0, 0}, 1)
	}
	assigned = s2.planChildSlots([]int32{0, 1})
	if assigned[0] != 3 {
		t.Errorf("first parent got %d, want 3", assigned[0])
	}
	if assigned[1] != -1 {
		t.Errorf("second parent got %d, want -1 (deferred)", assigned[1])
	}
}
