package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/genome"
)

// CellSeed is one ordered cell-creation record of the initial state.
type CellSeed struct {
	Pos       mgl32.Vec3
	Vel       mgl32.Vec3
	Rot       mgl32.Quat
	ModeIndex int32
	Mass      float32
	Stiffness float32 // 0 = config default
}

// InitialState is the immutable replay root: physics config, cell cap,
// ordered creation records, RNG seed and a creation timestamp. It may be
// shared freely by reference once populated; rebuilding canonical state
// from it is a pure function.
type InitialState struct {
	Config    Config
	MaxCells  int
	Seeds     []CellSeed
	Seed      uint64
	CreatedAt int64 // unix seconds; informational only
}

// NewInitialState creates an empty initial state with the given physics
// config, capacity and deterministic seed.
func NewInitialState(cfg Config, maxCells int, seed uint64, createdAt int64) *InitialState {
	return &InitialState{
		Config:    cfg,
		MaxCells:  maxCells,
		Seed:      seed,
		CreatedAt: createdAt,
	}
}

// AddSeed appends a creation record. Order matters: cell ids are assigned
// in record order at build time.
func (is *InitialState) AddSeed(seed CellSeed) {
	is.Seeds = append(is.Seeds, seed)
}

// Build converts the initial state to a fresh canonical state against the
// given genome. Records beyond MaxCells are dropped, matching the soft
// capacity semantics of the running simulation.
func (is *InitialState) Build(g *genome.Genome) *State {
	s := NewState(is.MaxCells, is.Seed, &is.Config)

	genomeRot := g.InitialOrientation.Mgl()
	for _, seed := range is.Seeds {
		modeIdx := seed.ModeIndex
		m, ok := g.ModeAt(int(modeIdx))
		if !ok {
			modeIdx = int32(g.InitialMode)
			m, _ = g.ModeAt(g.InitialMode)
		}

		rot := seed.Rot
		if rot.Len() < 1e-6 {
			rot = mgl32.QuatIdent()
		}
		stiffness := seed.Stiffness
		if stiffness == 0 {
			stiffness = is.Config.DefaultStiffness
		}

		_, _ = s.AddCell(CellInit{
			Pos:       seed.Pos,
			Vel:       seed.Vel,
			Rot:       rot,
			GenomeRot: genomeRot,
			Mass:      seed.Mass,
			Stiffness: stiffness,
			ModeIndex: modeIdx,
			BirthTime: 0,
		}, m, 0)
	}
	return s
}
