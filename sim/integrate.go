package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/constants"
	"github.com/lixenwraith/protocell/genome"
	"github.com/lixenwraith/protocell/vmath"
)

// Velocity-Verlet integration split around the force accumulation, plus
// swim thrust and the spherical boundary. All damping exponents share the
// base^(dt*100) form so per-second decay is invariant under timestep
// changes.

// integratePositions advances positions by the first Verlet half and
// rotations by the scaled-axis increment.
func (s *State) integratePositions(dt float32) {
	halfDtSq := 0.5 * dt * dt
	for i := 0; i < s.Count; i++ {
		s.PrevPos[i] = s.Pos[i]
		s.Pos[i] = s.Pos[i].
			Add(s.Vel[i].Mul(dt)).
			Add(s.Acc[i].Mul(halfDtSq))

		dq := vmath.QuatFromScaledAxis(s.AngVel[i].Mul(dt))
		s.Rot[i] = dq.Mul(s.Rot[i]).Normalize()
	}
}

// clearForces zeroes the per-tick accumulators.
func (s *State) clearForces() {
	for i := 0; i < s.Count; i++ {
		s.Force[i] = mgl32.Vec3{}
		s.Torque[i] = mgl32.Vec3{}
	}
}

// applySwimThrust adds forward thrust along each flagellocyte's -Z body
// axis and drains the proportional nutrient cost from its mass.
func (s *State) applySwimThrust(g *genome.Genome, dt float32) {
	back := mgl32.Vec3{0, 0, -1}
	for i := 0; i < s.Count; i++ {
		m := s.resolveMode(g, i)
		if m.CellType != genome.CellFlagellocyte || m.SwimForce <= 0 {
			continue
		}
		dir := s.Rot[i].Rotate(back)
		s.Force[i] = s.Force[i].Add(dir.Mul(m.SwimForce))

		s.Mass[i] -= m.SwimForce * constants.SwimCostRate * dt
		if s.Mass[i] < constants.MinMass {
			s.Mass[i] = constants.MinMass
		}
	}
}

// applyBoundary pushes penetrating cells back inside the sphere with a
// radial penalty force and zeroes the outward velocity component.
func (s *State) applyBoundary(cfg *Config) {
	for i := 0; i < s.Count; i++ {
		dist := s.Pos[i].Len()
		pen := dist + s.Radius[i] - cfg.SphereRadius
		if pen <= 0 || dist < constants.ContactEpsilon {
			continue
		}

		outward := s.Pos[i].Mul(1 / dist)
		s.Force[i] = s.Force[i].Sub(outward.Mul(cfg.WallStiffness * pen))

		if vOut := s.Vel[i].Dot(outward); vOut > 0 {
			s.Vel[i] = s.Vel[i].Sub(outward.Mul(vOut))
		}
	}
}

// integrateVelocities completes the Verlet step: new acceleration from the
// accumulated force, velocity from the averaged accelerations, then the
// timestep-invariant damping.
func (s *State) integrateVelocities(cfg *Config, dt float32) {
	damp := vmath.Pow32(cfg.VelocityDamping, dt*constants.DampingTimescale)
	for i := 0; i < s.Count; i++ {
		s.PrevAcc[i] = s.Acc[i]
		s.Acc[i] = s.Force[i].Mul(1 / s.Mass[i])

		s.Vel[i] = s.Vel[i].
			Add(s.PrevAcc[i].Add(s.Acc[i]).Mul(0.5 * dt)).
			Mul(damp)
	}
}

// integrateAngular advances angular velocity with the solid-sphere moment
// of inertia I = (2/5) m r^2.
func (s *State) integrateAngular(cfg *Config, dt float32) {
	damp := vmath.Pow32(cfg.AngularDamping, dt*constants.DampingTimescale)
	for i := 0; i < s.Count; i++ {
		inertia := 0.4 * s.Mass[i] * s.Radius[i] * s.Radius[i]
		s.AngVel[i] = s.AngVel[i].
			Add(s.Torque[i].Mul(dt / inertia)).
			Mul(damp)
	}
}
