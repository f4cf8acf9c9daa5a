package sim

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/constants"
	"github.com/lixenwraith/protocell/genome"
	"github.com/lixenwraith/protocell/vmath"
)

// Division: a parent cell is replaced by two children. Child A reuses the
// parent's index (stable reference), child B takes a slot from the bulk
// allocator. Both children get fresh cell ids; the parent's id retires
// forever. Adhesions transfer by the zone tag recorded on the parent's
// side of each link.

// inheritedLink captures one parent adhesion before the parent slot is
// overwritten by child A.
type inheritedLink struct {
	neighbor     int32
	parentAnchor mgl32.Vec3 // parent's genome-local anchor
	otherAnchor  mgl32.Vec3 // neighbor's genome-local anchor, unchanged
	zone         Zone       // zone tag on the parent's side
	parentIsA    bool       // canonical side assignment from origin
}

// stepDivisions scans eligibility in index order, reserves child slots in
// bulk, then executes each division in parent-index order.
func (s *State) stepDivisions(g *genome.Genome, now float32, tick uint64, fr *Frame) {
	parents := s.divisions[:0]
	for i := 0; i < s.Count; i++ {
		if s.divisionEligible(g, i, now) {
			parents = append(parents, int32(i))
		}
	}
	s.divisions = parents
	if len(parents) == 0 {
		return
	}

	assigned := s.planChildSlots(parents)
	for k, p := range parents {
		if assigned[k] < 0 {
			continue // at capacity; re-checked next tick
		}
		s.divide(g, p, assigned[k], now, tick, fr)
	}
}

// divisionEligible applies the five gates: age, mass, adhesion count,
// split budget, and (via the allocator) capacity.
//
// The age gate is strict: a cell whose age equals its interval exactly
// waits one more tick. Combined with the excess-age backdating below,
// this is what lets the sibling birth desync land the two children's
// next divisions on different ticks.
func (s *State) divisionEligible(g *genome.Genome, i int, now float32) bool {
	m := s.resolveMode(g, i)

	if now-s.BirthTime[i] <= s.SplitInterval[i] {
		return false
	}
	if s.Mass[i] < s.SplitMass[i] {
		return false
	}
	if int(s.CellAdhCount[i]) < m.MinAdhesions {
		return false
	}
	if m.MaxSplits >= 0 && int(s.SplitCount[i]) >= m.MaxSplits {
		return false
	}
	return true
}

// divide replaces parent p with children at p (child A) and slotB.
func (s *State) divide(g *genome.Genome, p, slotB int32, now float32, tick uint64, fr *Frame) {
	m := s.resolveMode(g, int(p))

	// Parent fields, captured before the slot is overwritten
	parentID := s.CellID[p]
	parentPos := s.Pos[p]
	parentVel := s.Vel[p]
	parentRot := s.Rot[p]
	parentGenomeRot := s.GenomeRot[p]
	parentMass := s.Mass[p]
	parentRadius := s.Radius[p]
	parentStiffness := s.Stiffness[p]
	parentModeIdx := s.ModeIndex[p]
	parentSplits := s.SplitCount[p]
	age := now - s.BirthTime[p]

	// World split axis: physics rotation applied to the genome-frame
	// split direction
	sLocal := m.ParentSplitDirection.Vector()
	sWorld := parentRot.Mul(parentGenomeRot).Normalize().Rotate(sLocal)

	// Reduced offset when adhered, to limit overlap with neighbors
	offFrac := constants.SplitOffsetFraction
	links := s.captureParentLinks(p)
	if len(links) > 0 {
		offFrac = constants.AdheredSplitOffsetFraction
	}
	offset := sWorld.Mul(offFrac * parentRadius)

	// Mode substitution once the split budget is exhausted
	modeA := int32(m.ChildA.ModeNumber)
	modeB := int32(m.ChildB.ModeNumber)
	newSplits := parentSplits + 1
	if m.MaxSplits >= 0 && int(newSplits) >= m.MaxSplits {
		if m.ModeAAfterSplits >= 0 {
			modeA = int32(m.ModeAAfterSplits)
		}
		if m.ModeBAfterSplits >= 0 {
			modeB = int32(m.ModeBAfterSplits)
		}
	}

	deltaA := m.ChildA.Orientation.Mgl()
	deltaB := m.ChildB.Orientation.Mgl()

	// Sibling birth desync keeps the children from re-dividing on the
	// same tick
	excess := age - s.SplitInterval[p]
	if excess < 0 {
		excess = 0
	}
	birthA := now - excess
	birthB := now - excess - constants.SiblingBirthDesync

	// Strip the parent's adhesions; inheritors get fresh slots below
	s.clearCellAdhesions(p)

	genomeModeA, _ := g.ModeAt(int(modeA))
	if genomeModeA == nil {
		genomeModeA = m
	}
	genomeModeB, _ := g.ModeAt(int(modeB))
	if genomeModeB == nil {
		genomeModeB = m
	}

	// Child A overwrites the parent slot
	idA := s.NextCellID
	s.NextCellID++
	s.writeCell(int(p), idA, CellInit{
		Pos:       parentPos.Sub(offset),
		Vel:       parentVel,
		Rot:       parentRot.Mul(deltaA).Normalize(),
		GenomeRot: parentGenomeRot.Mul(deltaA).Normalize(),
		Mass:      parentMass * m.SplitRatio,
		Stiffness: parentStiffness,
		ModeIndex: modeA,
		BirthTime: birthA,
	}, genomeModeA, tick)

	// Child B takes the allocator's slot
	idB := s.NextCellID
	s.NextCellID++
	s.writeCell(int(slotB), idB, CellInit{
		Pos:       parentPos.Add(offset),
		Vel:       parentVel,
		Rot:       parentRot.Mul(deltaB).Normalize(),
		GenomeRot: parentGenomeRot.Mul(deltaB).Normalize(),
		Mass:      parentMass * (1 - m.SplitRatio),
		Stiffness: parentStiffness,
		ModeIndex: modeB,
		BirthTime: birthB,
	}, genomeModeB, tick)
	if int(slotB) >= s.Count {
		s.Count = int(slotB) + 1
	}

	// Split budget carries over unless the child changed mode
	if modeA == parentModeIdx {
		s.SplitCount[p] = newSplits
	}
	if modeB == parentModeIdx {
		s.SplitCount[slotB] = newSplits
	}

	// Zone-driven inheritance; the child's anchor preserves the parent's
	// direction by conjugating with the child orientation delta
	for _, link := range links {
		if link.zone == ZoneA || link.zone == ZoneC {
			if m.ChildA.KeepAdhesion {
				s.inheritLink(g, p, deltaA, link)
			}
		}
		if link.zone == ZoneB || link.zone == ZoneC {
			if m.ChildB.KeepAdhesion {
				s.inheritLink(g, slotB, deltaB, link)
			}
		}
	}

	// Fresh bond between the siblings along the split axis
	if m.ParentMakeAdhesion {
		anchorA := vmath.SafeNormalize(deltaA.Inverse().Rotate(sLocal), sLocal)
		anchorB := vmath.SafeNormalize(deltaB.Inverse().Rotate(sLocal.Mul(-1)), sLocal.Mul(-1))
		_, _ = s.AddAdhesion(g, p, slotB, parentModeIdx, anchorA, anchorB)
	}

	fr.Divisions = append(fr.Divisions, DivisionEvent{
		ParentIdx:  p,
		ParentID:   parentID,
		ChildAIdx:  p,
		ChildAID:   idA,
		ChildBIdx:  slotB,
		ChildBID:   idB,
		ChildAMode: modeA,
		ChildBMode: modeB,
		Time:       now,
	})
}

// captureParentLinks snapshots the parent's adhesions in ascending slot
// order before they are cleared.
func (s *State) captureParentLinks(p int32) []inheritedLink {
	links := s.adhScratch[:0]

	base := int(p) * constants.MaxAdhesionsPerCell
	n := int(s.CellAdhCount[p])
	var slotBuf [constants.MaxAdhesionsPerCell]int32
	slots := slotBuf[:0]
	slots = append(slots, s.CellAdh[base:base+n]...)
	sort.Sort(int32List(slots))

	for _, slot := range slots {
		ad := &s.Adhesions[slot]
		link := inheritedLink{}
		if ad.CellA == p {
			link.neighbor = ad.CellB
			link.parentAnchor = ad.AnchorA
			link.otherAnchor = ad.AnchorB
			link.zone = ad.ZoneTagA
			link.parentIsA = true
		} else {
			link.neighbor = ad.CellA
			link.parentAnchor = ad.AnchorB
			link.otherAnchor = ad.AnchorA
			link.zone = ad.ZoneTagB
			link.parentIsA = false
		}
		links = append(links, link)
	}

	s.adhScratch = links
	return links
}

// inheritLink re-creates one parent adhesion on a child. The child anchor
// conjugates the parent's genome-local anchor by the inverse orientation
// delta; the neighbor side is untouched but its reference frame toward the
// new cell is recomputed inside AddAdhesion. The new slot adopts the
// child's mode, not the origin adhesion's.
func (s *State) inheritLink(g *genome.Genome, child int32, childDelta mgl32.Quat, link inheritedLink) {
	childAnchor := vmath.SafeNormalize(
		childDelta.Inverse().Rotate(link.parentAnchor),
		link.parentAnchor,
	)

	childMode := s.ModeIndex[child]
	if link.parentIsA {
		_, _ = s.AddAdhesion(g, child, link.neighbor, childMode, childAnchor, link.otherAnchor)
	} else {
		_, _ = s.AddAdhesion(g, link.neighbor, child, childMode, link.otherAnchor, childAnchor)
	}
}
