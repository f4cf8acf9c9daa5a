// Package sim is the deterministic simulation core: canonical
// structure-of-arrays state, spatial grid, collision and adhesion forces,
// Verlet integration, nutrient flow and the division pipeline. The package
// is a plain library; it never logs, never allocates in the tick path, and
// given the same (initial state, genome, seed, timestep, tick count) it
// produces bit-identical results on every run.
package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/constants"
	"github.com/lixenwraith/protocell/genome"
	"github.com/lixenwraith/protocell/vmath"
)

// State is the canonical world state. It exclusively owns all cells and
// adhesions; outside code reads it only through published snapshots.
//
// Cells live in fixed-capacity SoA arrays indexed 0..Count. Indices are
// stable for the lifetime of a cell: division writes child A over the
// parent slot and appends child B, so prior indices are never invalidated.
// Cell ids are 32-bit, monotonically increasing and never reused.
type State struct {
	Capacity   int
	Count      int
	NextCellID uint32
	Seed       uint64

	// Kinematics
	Pos     []mgl32.Vec3
	PrevPos []mgl32.Vec3
	Vel     []mgl32.Vec3
	AngVel  []mgl32.Vec3
	Acc     []mgl32.Vec3
	PrevAcc []mgl32.Vec3
	Force   []mgl32.Vec3
	Torque  []mgl32.Vec3

	// Orientation; Rot is the physics rotation, GenomeRot the design
	// frame adhesion anchors live in. Both stay unit length.
	Rot       []mgl32.Quat
	GenomeRot []mgl32.Quat

	// Body
	Mass      []float32
	Radius    []float32
	Stiffness []float32

	// Identity and lifecycle. BirthTime uses -1 as the free-slot
	// sentinel consumed by the bulk allocator.
	CellID        []uint32
	ModeIndex     []int32
	BirthTime     []float32
	SplitInterval []float32 // effective, per-cell randomized
	SplitMass     []float32 // effective, per-cell randomized
	SplitCount    []int32

	// Adhesion table; capacity is Capacity * MaxAdhesionsPerCell.
	// Slots are identified by index and reused after deactivation.
	Adhesions     []Adhesion
	AdhesionHigh  int     // high-water mark of ever-allocated slots
	freeAdhesions []int32 // reusable deactivated slots

	// Per-cell fixed-width adhesion slot lists for O(1) neighbor lookup
	CellAdh      []int32 // Capacity * MaxAdhesionsPerCell
	CellAdhCount []int32

	Grid *Grid

	// Pre-sized tick scratch; no allocation happens inside Step
	pairs        []contactPair
	divisions    []int32
	edges        []transportEdge
	prio         []float32
	freeSlots    []int32
	reservations []slotReservation
	assigned     []int32
	adhScratch   []inheritedLink
}

// NewState allocates a state with the given fixed cell capacity. All
// buffers, including grid and scratch, are sized up front.
func NewState(capacity int, seed uint64, cfg *Config) *State {
	adhCap := capacity * constants.MaxAdhesionsPerCell

	s := &State{
		Capacity:   capacity,
		NextCellID: 1,
		Seed:       seed,

		Pos:     make([]mgl32.Vec3, capacity),
		PrevPos: make([]mgl32.Vec3, capacity),
		Vel:     make([]mgl32.Vec3, capacity),
		AngVel:  make([]mgl32.Vec3, capacity),
		Acc:     make([]mgl32.Vec3, capacity),
		PrevAcc: make([]mgl32.Vec3, capacity),
		Force:   make([]mgl32.Vec3, capacity),
		Torque:  make([]mgl32.Vec3, capacity),

		Rot:       make([]mgl32.Quat, capacity),
		GenomeRot: make([]mgl32.Quat, capacity),

		Mass:      make([]float32, capacity),
		Radius:    make([]float32, capacity),
		Stiffness: make([]float32, capacity),

		CellID:        make([]uint32, capacity),
		ModeIndex:     make([]int32, capacity),
		BirthTime:     make([]float32, capacity),
		SplitInterval: make([]float32, capacity),
		SplitMass:     make([]float32, capacity),
		SplitCount:    make([]int32, capacity),

		Adhesions:     make([]Adhesion, adhCap),
		freeAdhesions: make([]int32, 0, adhCap),

		CellAdh:      make([]int32, adhCap),
		CellAdhCount: make([]int32, capacity),

		Grid: NewGrid(cfg.WorldSize, cfg.GridDim, cfg.SphereRadius, capacity),

		pairs:        make([]contactPair, 0, capacity*8),
		divisions:    make([]int32, 0, capacity),
		edges:        make([]transportEdge, 0, adhCap),
		prio:         make([]float32, capacity),
		freeSlots:    make([]int32, 0, capacity),
		reservations: make([]slotReservation, 0, capacity),
		assigned:     make([]int32, 0, capacity),
		adhScratch:   make([]inheritedLink, 0, constants.MaxAdhesionsPerCell),
	}

	for i := range s.BirthTime {
		s.BirthTime[i] = -1
	}
	for i := range s.Rot {
		s.Rot[i] = mgl32.QuatIdent()
		s.GenomeRot[i] = mgl32.QuatIdent()
	}
	for i := range s.CellAdh {
		s.CellAdh[i] = -1
	}
	return s
}

// CellInit carries the caller-supplied fields of a new cell. Identity,
// radius and the randomized split parameters are assigned by AddCell.
type CellInit struct {
	Pos       mgl32.Vec3
	Vel       mgl32.Vec3
	Rot       mgl32.Quat
	GenomeRot mgl32.Quat
	Mass      float32
	Stiffness float32
	ModeIndex int32
	BirthTime float32
}

// AddCell appends a cell at index Count and returns that index. The new
// cell draws its effective split interval and mass from the pure hash RNG
// keyed by its fresh id and the current tick, so allocation order never
// influences the draws. Returns ErrAtCapacity when full; the request is
// dropped, never fatal.
func (s *State) AddCell(init CellInit, m *genome.Mode, tick uint64) (int, error) {
	if s.Count >= s.Capacity {
		return -1, ErrAtCapacity
	}

	idx := s.Count
	id := s.NextCellID
	s.NextCellID++
	s.Count++

	s.writeCell(idx, id, init, m, tick)
	return idx, nil
}

// writeCell default-initializes slot idx for the given identity. Shared
// by AddCell and the division pipeline (which re-seeds the parent slot for
// child A).
func (s *State) writeCell(idx int, id uint32, init CellInit, m *genome.Mode, tick uint64) {
	mass := init.Mass
	if mass < constants.MinMass {
		mass = constants.MinMass
	}

	s.Pos[idx] = init.Pos
	s.PrevPos[idx] = init.Pos
	s.Vel[idx] = init.Vel
	s.AngVel[idx] = mgl32.Vec3{}
	s.Acc[idx] = mgl32.Vec3{}
	s.PrevAcc[idx] = mgl32.Vec3{}
	s.Force[idx] = mgl32.Vec3{}
	s.Torque[idx] = mgl32.Vec3{}

	s.Rot[idx] = init.Rot.Normalize()
	s.GenomeRot[idx] = init.GenomeRot.Normalize()

	s.Mass[idx] = mass
	s.Radius[idx] = vmath.Clamp32(mass, constants.MinRadius, m.MaxCellSize)
	s.Stiffness[idx] = init.Stiffness

	s.CellID[idx] = id
	s.ModeIndex[idx] = init.ModeIndex
	s.BirthTime[idx] = init.BirthTime
	s.SplitInterval[idx] = effectiveSplitInterval(m, id, tick, s.Seed)
	s.SplitMass[idx] = effectiveSplitMass(m, id, tick, s.Seed)
	s.SplitCount[idx] = 0
	s.CellAdhCount[idx] = 0
}

// effectiveSplitInterval draws the per-cell split interval. Stream id 0 is
// fixed for replay compatibility.
func effectiveSplitInterval(m *genome.Mode, id uint32, tick uint64, seed uint64) float32 {
	if m.SplitIntervalMin > 0 && m.SplitIntervalMin < m.SplitInterval {
		return vmath.HashRange(id, tick, seed, constants.StreamSplitInterval, m.SplitIntervalMin, m.SplitInterval)
	}
	return m.SplitInterval
}

// effectiveSplitMass draws the per-cell split mass. Stream id 1 is fixed
// for replay compatibility.
func effectiveSplitMass(m *genome.Mode, id uint32, tick uint64, seed uint64) float32 {
	if m.SplitMassMin > 0 && m.SplitMassMin < m.SplitMass {
		return vmath.HashRange(id, tick, seed, constants.StreamSplitMass, m.SplitMassMin, m.SplitMass)
	}
	return m.SplitMass
}

// resolveMode returns the mode driving cell i. An out-of-range index is a
// soft failure: the index is clamped so the tick completes with usable
// settings.
func (s *State) resolveMode(g *genome.Genome, i int) *genome.Mode {
	if m, ok := g.ModeAt(int(s.ModeIndex[i])); ok {
		return m
	}
	idx := int(s.ModeIndex[i])
	if idx < 0 {
		idx = 0
	}
	if idx >= len(g.Modes) {
		idx = len(g.Modes) - 1
	}
	return &g.Modes[idx]
}

// CheckFinite validates positions and velocities. Non-finite state is a
// programming bug; tests treat this as fatal.
func (s *State) CheckFinite() error {
	for i := 0; i < s.Count; i++ {
		if !vmath.IsFinite(s.Pos[i]) || !vmath.IsFinite(s.Vel[i]) {
			return ErrNonFinite
		}
	}
	return nil
}
