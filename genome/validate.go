package genome

import (
	"errors"
	"fmt"
)

var (
	ErrNoModes     = errors.New("genome has no modes")
	ErrInvalidMode = errors.New("mode index out of range")
)

// Validate checks structural constraints. The loader is the only place a
// bad genome can refuse to start a simulation; inside a tick invalid mode
// references degrade softly instead.
func (g *Genome) Validate() error {
	if len(g.Modes) == 0 {
		return ErrNoModes
	}
	if g.InitialMode < 0 || g.InitialMode >= len(g.Modes) {
		return fmt.Errorf("initial_mode %d: %w", g.InitialMode, ErrInvalidMode)
	}

	for i := range g.Modes {
		m := &g.Modes[i]
		if err := m.validate(len(g.Modes)); err != nil {
			return fmt.Errorf("mode %d (%s): %w", i, m.Name, err)
		}
	}
	return nil
}

func (m *Mode) validate(modeCount int) error {
	if m.SplitRatio <= 0 || m.SplitRatio >= 1 {
		return fmt.Errorf("split_ratio %v outside (0, 1)", m.SplitRatio)
	}
	if m.SplitInterval <= 0 {
		return fmt.Errorf("split_interval %v must be positive", m.SplitInterval)
	}
	if m.SplitIntervalMin < 0 || (m.SplitIntervalMin > 0 && m.SplitIntervalMin > m.SplitInterval) {
		return fmt.Errorf("split_interval_min %v outside [0, split_interval]", m.SplitIntervalMin)
	}
	if m.SplitMass <= 0 {
		return fmt.Errorf("split_mass %v must be positive", m.SplitMass)
	}
	if m.SplitMassMin < 0 || (m.SplitMassMin > 0 && m.SplitMassMin > m.SplitMass) {
		return fmt.Errorf("split_mass_min %v outside [0, split_mass]", m.SplitMassMin)
	}
	if m.SwimForce < 0 || m.SwimForce > 1 {
		return fmt.Errorf("swim_force %v outside [0, 1]", m.SwimForce)
	}
	if m.MaxCellSize <= 0 {
		return fmt.Errorf("max_cell_size %v must be positive", m.MaxCellSize)
	}

	for _, ref := range []struct {
		name string
		idx  int
	}{
		{"child_a.mode_number", m.ChildA.ModeNumber},
		{"child_b.mode_number", m.ChildB.ModeNumber},
	} {
		if ref.idx < 0 || ref.idx >= modeCount {
			return fmt.Errorf("%s %d: %w", ref.name, ref.idx, ErrInvalidMode)
		}
	}

	// After-split mode substitutions are optional (-1 = keep mode)
	for _, ref := range []struct {
		name string
		idx  int
	}{
		{"mode_a_after_splits", m.ModeAAfterSplits},
		{"mode_b_after_splits", m.ModeBAfterSplits},
	} {
		if ref.idx >= modeCount {
			return fmt.Errorf("%s %d: %w", ref.name, ref.idx, ErrInvalidMode)
		}
	}

	a := &m.Adhesion
	if a.RestLength < 0 || a.LinearStiffness < 0 || a.LinearDamping < 0 ||
		a.OrientStiffness < 0 || a.OrientDamping < 0 ||
		a.TwistStiffness < 0 || a.TwistDamping < 0 || a.BreakForce < 0 {
		return errors.New("adhesion parameters must be non-negative")
	}
	return nil
}
