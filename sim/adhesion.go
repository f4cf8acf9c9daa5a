package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/constants"
	"github.com/lixenwraith/protocell/genome"
	"github.com/lixenwraith/protocell/vmath"
)

// Zone classifies an adhesion anchor against the owning cell's split
// direction. Zone tags are assigned at creation and drive inheritance
// when the cell divides.
type Zone uint8

const (
	// ZoneA: anchor in the hemisphere opposite the split direction
	ZoneA Zone = iota
	// ZoneB: anchor in the split-direction hemisphere
	ZoneB
	// ZoneC: anchor in the equatorial band; both children inherit
	ZoneC
)

// Adhesion is one slot of the adhesion table. The pair is unordered but
// the side assignment from creation is preserved, so "A" and "B" below
// are stable. Anchor and split-reference directions live in each cell's
// genome-local frame.
type Adhesion struct {
	CellA, CellB int32

	AnchorA, AnchorB     mgl32.Vec3 // unit anchor directions, genome-local
	SplitRefA, SplitRefB mgl32.Vec3 // split directions at creation, genome-local.
	//                                 Part of the connection's data model; the
	//                                 zone tags below are classified from them
	//                                 once at creation and the force path never
	//                                 reads them again
	FrameA, FrameB       mgl32.Quat // world genome frames at creation; rest
	//                                 relative orientation and twist
	//                                 reference derive from these

	ModeIndex    int32 // genome mode supplying spring parameters
	ZoneTagA     Zone
	ZoneTagB     Zone
	Active       bool
}

// worldFrame is the composed world-space genome frame of cell i: physics
// rotation applied to the design frame. Renormalized because the product
// feeds further rotation chains.
func (s *State) worldFrame(i int32) mgl32.Quat {
	return s.Rot[i].Mul(s.GenomeRot[i]).Normalize()
}

// ClassifyZone tags an anchor against a split direction s: A opposes the
// split hemisphere, B shares it, C is the equatorial band within
// ZoneEpsilon (~cos 80 deg) of the equator.
func ClassifyZone(anchor, split mgl32.Vec3) Zone {
	d := anchor.Dot(split)
	switch {
	case d < -constants.ZoneEpsilon:
		return ZoneA
	case d > constants.ZoneEpsilon:
		return ZoneB
	default:
		return ZoneC
	}
}

// adhesionLimit is the per-cell connection cap: the fixed table width,
// tightened by the cell's mode.
func (s *State) adhesionLimit(g *genome.Genome, cell int32) int32 {
	limit := int32(constants.MaxAdhesionsPerCell)
	m := s.resolveMode(g, int(cell))
	if m.MaxAdhesions > 0 && int32(m.MaxAdhesions) < limit {
		limit = int32(m.MaxAdhesions)
	}
	return limit
}

// AddAdhesion connects cells a and b with the given genome-local anchors.
// modeIdx selects the genome mode whose adhesion settings govern the
// connection. A full table or a full per-cell list drops the connection
// with ErrAtCapacity; this is not fatal.
func (s *State) AddAdhesion(g *genome.Genome, a, b int32, modeIdx int32, anchorA, anchorB mgl32.Vec3) (int32, error) {
	if s.CellAdhCount[a] >= s.adhesionLimit(g, a) || s.CellAdhCount[b] >= s.adhesionLimit(g, b) {
		return -1, ErrAtCapacity
	}

	slot, ok := s.allocAdhesionSlot()
	if !ok {
		return -1, ErrAtCapacity
	}

	splitA := s.resolveMode(g, int(a)).ParentSplitDirection.Vector()
	splitB := s.resolveMode(g, int(b)).ParentSplitDirection.Vector()

	anchorA = vmath.SafeNormalize(anchorA, mgl32.Vec3{0, 0, 1})
	anchorB = vmath.SafeNormalize(anchorB, mgl32.Vec3{0, 0, 1})

	s.Adhesions[slot] = Adhesion{
		CellA:     a,
		CellB:     b,
		AnchorA:   anchorA,
		AnchorB:   anchorB,
		SplitRefA: splitA,
		SplitRefB: splitB,
		FrameA:    s.worldFrame(a),
		FrameB:    s.worldFrame(b),
		ModeIndex: modeIdx,
		ZoneTagA:  ClassifyZone(anchorA, splitA),
		ZoneTagB:  ClassifyZone(anchorB, splitB),
		Active:    true,
	}

	s.attachSlot(a, slot)
	s.attachSlot(b, slot)
	return slot, nil
}

// FreeAdhesionCount reports how many previously used slots below the
// high-water mark are currently free.
func (s *State) FreeAdhesionCount() int {
	return len(s.freeAdhesions)
}

func (s *State) allocAdhesionSlot() (int32, bool) {
	if n := len(s.freeAdhesions); n > 0 {
		slot := s.freeAdhesions[n-1]
		s.freeAdhesions = s.freeAdhesions[:n-1]
		return slot, true
	}
	if s.AdhesionHigh < len(s.Adhesions) {
		slot := int32(s.AdhesionHigh)
		s.AdhesionHigh++
		return slot, true
	}
	return -1, false
}

func (s *State) attachSlot(cell, slot int32) {
	base := int(cell) * constants.MaxAdhesionsPerCell
	s.CellAdh[base+int(s.CellAdhCount[cell])] = slot
	s.CellAdhCount[cell]++
}

// detachSlot removes slot from cell's index list by swap-remove.
func (s *State) detachSlot(cell, slot int32) {
	base := int(cell) * constants.MaxAdhesionsPerCell
	n := int(s.CellAdhCount[cell])
	for i := 0; i < n; i++ {
		if s.CellAdh[base+i] == slot {
			s.CellAdh[base+i] = s.CellAdh[base+n-1]
			s.CellAdh[base+n-1] = -1
			s.CellAdhCount[cell]--
			return
		}
	}
}

// DeactivateAdhesion frees a slot and clears both cells' references to it.
func (s *State) DeactivateAdhesion(slot int32) {
	ad := &s.Adhesions[slot]
	if !ad.Active {
		return
	}
	ad.Active = false
	s.detachSlot(ad.CellA, slot)
	s.detachSlot(ad.CellB, slot)
	s.freeAdhesions = append(s.freeAdhesions, slot)
}

// clearCellAdhesions deactivates every connection of a cell; used when a
// division strips non-inherited links.
func (s *State) clearCellAdhesions(cell int32) {
	for s.CellAdhCount[cell] > 0 {
		base := int(cell) * constants.MaxAdhesionsPerCell
		s.DeactivateAdhesion(s.CellAdh[base])
	}
}

// adhered reports whether cells i and j share an active connection.
// O(MaxAdhesionsPerCell); adhered pairs are exempt from collision response.
func (s *State) adhered(i, j int32) bool {
	base := int(i) * constants.MaxAdhesionsPerCell
	n := int(s.CellAdhCount[i])
	for k := 0; k < n; k++ {
		ad := &s.Adhesions[s.CellAdh[base+k]]
		if ad.CellA == j || ad.CellB == j {
			return true
		}
	}
	return false
}

// applyAdhesionForces runs the spring-damper network in slot-index order:
// linear anchor spring with surface torque, orientation spring with error
// angle clamped at the mode's max deviation, optional twist constraint,
// and the break check. Broken slots emit an event and apply no force in
// the breaking tick.
func (s *State) applyAdhesionForces(g *genome.Genome, fr *Frame) {
	for slot := 0; slot < s.AdhesionHigh; slot++ {
		ad := &s.Adhesions[slot]
		if !ad.Active {
			continue
		}

		m, ok := g.ModeAt(int(ad.ModeIndex))
		if !ok {
			m = s.resolveMode(g, int(ad.CellA))
		}
		set := &m.Adhesion

		a, b := ad.CellA, ad.CellB
		frameA := s.worldFrame(a)
		frameB := s.worldFrame(b)

		// Anchor points on each surface
		wAnchorA := frameA.Rotate(ad.AnchorA)
		wAnchorB := frameB.Rotate(ad.AnchorB)
		armA := wAnchorA.Mul(s.Radius[a])
		armB := wAnchorB.Mul(s.Radius[b])
		pA := s.Pos[a].Add(armA)
		pB := s.Pos[b].Add(armB)

		delta := pB.Sub(pA)
		d := delta.Len()
		n := mgl32.Vec3{1, 0, 0}
		if d > constants.ContactEpsilon {
			n = delta.Mul(1 / d)
		}

		relVel := s.Vel[b].Sub(s.Vel[a])
		fMag := set.LinearStiffness*(d-set.RestLength) - set.LinearDamping*relVel.Dot(n)

		// Break on instantaneous linear force; the slot frees and both
		// index lists drop it within this tick
		if set.BreakForce > 0 && abs32(fMag) > set.BreakForce {
			fr.Breaks = append(fr.Breaks, BreakEvent{
				Slot:    int32(slot),
				CellAID: s.CellID[a],
				CellBID: s.CellID[b],
			})
			s.DeactivateAdhesion(int32(slot))
			continue
		}

		f := n.Mul(fMag)
		s.Force[a] = s.Force[a].Add(f)
		s.Force[b] = s.Force[b].Sub(f)
		s.Torque[a] = s.Torque[a].Add(armA.Cross(f))
		s.Torque[b] = s.Torque[b].Add(armB.Cross(f.Mul(-1)))

		// Orientation spring: error between the current relative genome
		// frames and the relative frames recorded at creation. The rest
		// rotation lives in A's local frame so a common rotation of the
		// pair produces no error.
		rest := ad.FrameA.Inverse().Mul(ad.FrameB).Normalize()
		expectedB := frameA.Mul(rest).Normalize()
		qErr := vmath.RelativeRotation(expectedB, frameB)

		axis, angle := vmath.QuatAxisAngle(qErr)
		if angle > 0 {
			if set.MaxAngularDeviation > 0 && angle > set.MaxAngularDeviation {
				// Clamp the error angle, not the force
				angle = set.MaxAngularDeviation
			}
			relAng := s.AngVel[b].Sub(s.AngVel[a])
			tau := axis.Mul(set.OrientStiffness * angle).Sub(relAng.Mul(set.OrientDamping))
			s.Torque[a] = s.Torque[a].Add(tau)
			s.Torque[b] = s.Torque[b].Sub(tau)
		}

		// Twist constraint: 1-D spring-damper on the roll about n that
		// remains after the bend component is removed
		if set.EnableTwist {
			_, twist := vmath.SwingTwist(qErr, n)
			tAxis, tAngle := vmath.QuatAxisAngle(twist)
			if tAngle > 0 {
				if tAxis.Dot(n) < 0 {
					tAngle = -tAngle
				}
				relTwist := s.AngVel[b].Sub(s.AngVel[a]).Dot(n)
				tMag := set.TwistStiffness*tAngle - set.TwistDamping*relTwist
				tau := n.Mul(tMag)
				s.Torque[a] = s.Torque[a].Add(tau)
				s.Torque[b] = s.Torque[b].Sub(tau)
			}
		}
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
