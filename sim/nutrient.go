package sim

import (
	"sort"

	"github.com/lixenwraith/protocell/constants"
	"github.com/lixenwraith/protocell/genome"
	"github.com/lixenwraith/protocell/vmath"
)

// transportEdge is one undirected adhesion edge normalized to i < j.
type transportEdge struct {
	i, j int32
}

type edgeList []transportEdge

func (e edgeList) Len() int      { return len(e) }
func (e edgeList) Swap(i, j int) { e[i], e[j] = e[j], e[i] }
func (e edgeList) Less(i, j int) bool {
	if e[i].i != e[j].i {
		return e[i].i < e[j].i
	}
	return e[i].j < e[j].j
}

// stepNutrients runs growth then transport. Transport walks edges in
// ascending (i, j) order; this ordering is part of the determinism
// contract and must never run with conflicting parallel writes.
func (s *State) stepNutrients(g *genome.Genome, dt float32, fr *Frame) {
	// Growth from ambient nutrients, clamped so no cell outgrows twice
	// its effective split mass
	for i := 0; i < s.Count; i++ {
		m := s.resolveMode(g, i)
		if m.NutrientGainRate > 0 {
			s.Mass[i] = vmath.Clamp32(
				s.Mass[i]+m.NutrientGainRate*dt,
				constants.MinMass,
				2*s.SplitMass[i],
			)
		}
		s.Radius[i] = vmath.Clamp32(s.Mass[i], constants.MinRadius, m.MaxCellSize)
	}

	// Effective priorities; starving prioritize-when-low cells get the
	// boost
	for i := 0; i < s.Count; i++ {
		m := s.resolveMode(g, i)
		p := m.NutrientPriority
		if p <= 0 {
			p = 1
		}
		if m.PrioritizeWhenLow && s.Mass[i] < constants.LowMassThreshold {
			p *= constants.LowMassBoost
		}
		s.prio[i] = p
	}

	// Collect the live adhesion edges and order them
	edges := s.edges[:0]
	for slot := 0; slot < s.AdhesionHigh; slot++ {
		ad := &s.Adhesions[slot]
		if !ad.Active {
			continue
		}
		i, j := ad.CellA, ad.CellB
		if j < i {
			i, j = j, i
		}
		edges = append(edges, transportEdge{i: i, j: j})
	}
	sort.Sort(edgeList(edges))
	s.edges = edges

	// Priority-weighted flow, floored at MinMass on the donor side
	for _, e := range edges {
		pi, pj := s.prio[e.i], s.prio[e.j]
		sum := pi + pj
		if sum <= 0 {
			continue
		}

		delta := constants.TransportRate * dt *
			((pj/sum)*s.Mass[e.i] - (pi/sum)*s.Mass[e.j])

		if delta > 0 {
			if room := s.Mass[e.i] - constants.MinMass; delta > room {
				delta = room
			}
		} else {
			if room := s.Mass[e.j] - constants.MinMass; -delta > room {
				delta = -room
			}
		}

		s.Mass[e.i] -= delta
		s.Mass[e.j] += delta
		fr.TransportedMass += abs32(delta)
	}
}
