package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AdhesionView is one active adhesion slot as exposed to readers.
type AdhesionView struct {
	Slot             int32
	CellA, CellB     int32
	CellAID, CellBID uint32
	AnchorA, AnchorB mgl32.Vec3
	ZoneA, ZoneB     Zone
}

// Snapshot is a read-only copy of the canonical state taken at a tick
// boundary. The presentation layer reads snapshots from a double buffer,
// never the live state.
type Snapshot struct {
	Time  float32
	Tick  uint64
	Count int

	Pos       []mgl32.Vec3
	Vel       []mgl32.Vec3
	Rot       []mgl32.Quat
	Mass      []float32
	Radius    []float32
	ModeIndex []int32
	CellID    []uint32

	Adhesions []AdhesionView
}

// Capture copies the live arrays into dst, reusing its storage.
func (s *State) Capture(dst *Snapshot, now float32, tick uint64) {
	dst.Time = now
	dst.Tick = tick
	dst.Count = s.Count

	dst.Pos = append(dst.Pos[:0], s.Pos[:s.Count]...)
	dst.Vel = append(dst.Vel[:0], s.Vel[:s.Count]...)
	dst.Rot = append(dst.Rot[:0], s.Rot[:s.Count]...)
	dst.Mass = append(dst.Mass[:0], s.Mass[:s.Count]...)
	dst.Radius = append(dst.Radius[:0], s.Radius[:s.Count]...)
	dst.ModeIndex = append(dst.ModeIndex[:0], s.ModeIndex[:s.Count]...)
	dst.CellID = append(dst.CellID[:0], s.CellID[:s.Count]...)

	dst.Adhesions = dst.Adhesions[:0]
	for slot := 0; slot < s.AdhesionHigh; slot++ {
		ad := &s.Adhesions[slot]
		if !ad.Active {
			continue
		}
		dst.Adhesions = append(dst.Adhesions, AdhesionView{
			Slot:    int32(slot),
			CellA:   ad.CellA,
			CellB:   ad.CellB,
			CellAID: s.CellID[ad.CellA],
			CellBID: s.CellID[ad.CellB],
			AnchorA: ad.AnchorA,
			AnchorB: ad.AnchorB,
			ZoneA:   ad.ZoneTagA,
			ZoneB:   ad.ZoneTagB,
		})
	}
}
