package sim

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/constants"
)

// contactPair is one overlapping pair from the broad phase, normalized so
// a < b with the contact normal pointing from a toward b.
type contactPair struct {
	a, b    int32
	overlap float32
	normal  mgl32.Vec3
}

// pairList sorts by (a, b); typed to keep the sort allocation-free.
type pairList []contactPair

func (p pairList) Len() int      { return len(p) }
func (p pairList) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p pairList) Less(i, j int) bool {
	if p[i].a != p[j].a {
		return p[i].a < p[j].a
	}
	return p[i].b < p[j].b
}

// detectPairs runs the broad phase over the rebuilt grid: each cell checks
// later cells in its own bucket plus the 13 forward-neighbor buckets, so
// no pair is enumerated twice. The result is sorted by (a, b) before force
// application; with parallel enumeration the same sort restores the
// deterministic order.
func (s *State) detectPairs() []contactPair {
	pairs := s.pairs[:0]

	for i := 0; i < s.Count; i++ {
		bi := s.Grid.CellBucket(i)
		if bi < 0 {
			continue
		}

		// Same bucket, later cells only
		for _, j := range s.Grid.Entries(bi) {
			if int(j) > i {
				pairs = s.tryPair(pairs, int32(i), j)
			}
		}

		// Forward half stencil
		x, y, z := s.Grid.CellCoord(i)
		for _, off := range forwardStencil {
			nb := s.Grid.BucketAt(x+off[0], y+off[1], z+off[2])
			if nb < 0 {
				continue
			}
			for _, j := range s.Grid.Entries(nb) {
				pairs = s.tryPair(pairs, int32(i), j)
			}
		}
	}

	sort.Sort(pairList(pairs))
	s.pairs = pairs
	return pairs
}

// tryPair narrow-phase tests one candidate and appends it when the spheres
// overlap.
func (s *State) tryPair(pairs []contactPair, i, j int32) []contactPair {
	a, b := i, j
	if b < a {
		a, b = b, a
	}

	delta := s.Pos[b].Sub(s.Pos[a])
	d := delta.Len()
	sum := s.Radius[a] + s.Radius[b]
	if d >= sum {
		return pairs
	}

	n := mgl32.Vec3{1, 0, 0}
	if d >= constants.ContactEpsilon {
		n = delta.Mul(1 / d)
	}

	return append(pairs, contactPair{a: a, b: b, overlap: sum - d, normal: n})
}

// applyCollisionForces applies the penalty spring-damper and rolling
// friction to each sorted pair. Pairs joined by an adhesion are skipped
// entirely: the adhesion is the sole medium of interaction between
// connected cells.
func (s *State) applyCollisionForces(cfg *Config, pairs []contactPair) {
	for idx := range pairs {
		p := &pairs[idx]
		a, b := p.a, p.b
		if s.adhered(a, b) {
			continue
		}

		k := combinedStiffness(s.Stiffness[a], s.Stiffness[b], cfg.DefaultStiffness)
		n := p.normal

		relVel := s.Vel[b].Sub(s.Vel[a])
		fMag := k*p.overlap - cfg.Damping*relVel.Dot(n)
		if fMag > constants.MaxCollisionForce {
			fMag = constants.MaxCollisionForce
		} else if fMag < -constants.MaxCollisionForce {
			fMag = -constants.MaxCollisionForce
		}

		f := n.Mul(fMag)
		s.Force[a] = s.Force[a].Sub(f)
		s.Force[b] = s.Force[b].Add(f)

		if cfg.FrictionCoefficient > 0 && p.overlap > 0 {
			s.applyRollingFriction(cfg, a, b, n, fMag)
		}
	}
}

// combinedStiffness is the harmonic mean of the two cell stiffnesses,
// falling back to the non-zero side, else the config default.
func combinedStiffness(ka, kb, def float32) float32 {
	switch {
	case ka > 0 && kb > 0:
		return (ka * kb) / (ka + kb)
	case ka > 0:
		return ka
	case kb > 0:
		return kb
	default:
		return def
	}
}

// applyRollingFriction resists tangential contact-point motion with a
// torque capped by the Coulomb-like bound mu*|F|.
func (s *State) applyRollingFriction(cfg *Config, a, b int32, n mgl32.Vec3, fMag float32) {
	offA := n.Mul(s.Radius[a])        // contact offset on a
	offB := n.Mul(-s.Radius[b])       // contact offset on b

	// Full relative velocity at the contact point
	vA := s.Vel[a].Add(s.AngVel[a].Cross(offA))
	vB := s.Vel[b].Add(s.AngVel[b].Cross(offB))
	vRel := vB.Sub(vA)

	vT := vRel.Sub(n.Mul(vRel.Dot(n)))
	speed := vT.Len()
	if speed <= constants.TangentEpsilon {
		return
	}
	tangent := vT.Mul(1 / speed)

	mag := speed * s.Radius[a]
	if bound := cfg.FrictionCoefficient * abs32(fMag); mag > bound {
		mag = bound
	}

	axisA := offA.Cross(tangent).Mul(-1)
	if axisA.Len() > constants.ContactEpsilon {
		s.Torque[a] = s.Torque[a].Add(axisA.Normalize().Mul(mag))
	}
	axisB := offB.Cross(tangent).Mul(-1)
	if axisB.Len() > constants.ContactEpsilon {
		s.Torque[b] = s.Torque[b].Add(axisB.Normalize().Mul(mag))
	}
}
