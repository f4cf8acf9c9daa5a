package genome

import (
	"encoding/json"
	"fmt"
)

// Decoding is tolerant: unknown fields are ignored and missing optional
// fields take the documented defaults below, so genomes written by older
// editors keep loading.

// DefaultMode returns a mode populated with the documented defaults.
func DefaultMode() Mode {
	return Mode{
		Name:             "mode",
		Color:            Color{X: 1, Y: 1, Z: 1},
		Opacity:          1,
		CellType:         CellNutrient,
		SplitInterval:    5,
		SplitMass:        1.5,
		MaxSplits:        -1,
		ModeAAfterSplits: -1,
		ModeBAfterSplits: -1,
		NutrientGainRate: 0,
		MaxCellSize:      2,
		SplitRatio:       0.5,
		NutrientPriority: 1,
		MaxAdhesions:     20,
		ChildA:           ChildSettings{Orientation: QuatIdent(), KeepAdhesion: true},
		ChildB:           ChildSettings{Orientation: QuatIdent(), KeepAdhesion: true},
		Adhesion: AdhesionSettings{
			RestLength:          2,
			LinearStiffness:     150,
			LinearDamping:       5,
			OrientStiffness:     10,
			OrientDamping:       1,
			MaxAngularDeviation: 3.14159265,
		},
	}
}

// UnmarshalJSON decodes over the defaults so absent fields keep them.
func (m *Mode) UnmarshalJSON(data []byte) error {
	type alias Mode
	tmp := alias(DefaultMode())
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*m = Mode(tmp)
	return nil
}

// UnmarshalJSON defaults an absent or null orientation to identity.
func (c *ChildSettings) UnmarshalJSON(data []byte) error {
	type alias ChildSettings
	tmp := alias(ChildSettings{Orientation: QuatIdent(), KeepAdhesion: true})
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*c = ChildSettings(tmp)
	return nil
}

// Decode parses a genome JSON document, fills defaults and validates.
func Decode(data []byte) (*Genome, error) {
	g := &Genome{InitialOrientation: QuatIdent()}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("decode genome: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genome %q: %w", g.Name, err)
	}
	return g, nil
}

// Encode serializes a genome with stable indentation for hand editing.
func Encode(g *Genome) ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode genome: %w", err)
	}
	return data, nil
}
