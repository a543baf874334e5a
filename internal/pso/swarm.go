package pso

// Rand is the random source consumed by the swarm. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Params holds the per-step coefficients. VelocityClamp and PositionClamp are
// optional; nil leaves particles unbounded.
type Params struct {
	W  float64 // inertia weight
	C1 float64 // cognitive coefficient
	C2 float64 // social coefficient

	VelocityClamp *Bounds
	PositionClamp *Bounds
}

// Validate rejects non-finite coefficients and malformed clamps.
func (p Params) Validate() error {
	if !isFinite(p.W) {
		return invalid("W", "must be finite")
	}
	if !isFinite(p.C1) {
		return invalid("C1", "must be finite")
	}
	if !isFinite(p.C2) {
		return invalid("C2", "must be finite")
	}
	if p.VelocityClamp != nil {
		if err := p.VelocityClamp.Validate("VelocityClamp"); err != nil {
			return err
		}
	}
	if p.PositionClamp != nil {
		if err := p.PositionClamp.Validate("PositionClamp"); err != nil {
			return err
		}
	}
	return nil
}

// Swarm owns the particles and the global-best snapshot. It is not safe for
// concurrent use.
type Swarm struct {
	Particles []Particle
	Best      GlobalBest

	objective Objective
	steps     int
}

// Initialize creates n particles with positions drawn uniformly from pos and
// velocities from vel on both axes, then scans for the global best. Nothing is
// drawn from rng when the arguments are invalid.
func Initialize(n int, pos, vel Bounds, objective Objective, rng Rand) (*Swarm, error) {
	if n <= 0 {
		return nil, invalid("Particles", "must be positive")
	}
	if err := pos.Validate("PositionBounds"); err != nil {
		return nil, err
	}
	if err := vel.Validate("VelocityBounds"); err != nil {
		return nil, err
	}
	if objective == nil {
		objective = Paraboloid
	}

	particles := make([]Particle, n)
	for i := range particles {
		x := uniform(rng, pos.Min, pos.Max)
		y := uniform(rng, pos.Min, pos.Max)
		vx := uniform(rng, vel.Min, vel.Max)
		vy := uniform(rng, vel.Min, vel.Max)

		value := objective(x, y)
		if !isFinite(value) {
			return nil, &NumericOverflowError{Iteration: -1, Particle: i, Quantity: "value"}
		}

		particles[i] = Particle{
			Position:     Vec2{X: x, Y: y},
			Velocity:     Vec2{X: vx, Y: vy},
			BestPosition: Vec2{X: x, Y: y},
			BestValue:    value,
		}
	}

	s := &Swarm{Particles: particles, objective: objective}
	s.Best = s.scanBest()
	return s, nil
}

// scanBest finds the particle with the lowest personal best; the first one
// wins ties.
func (s *Swarm) scanBest() GlobalBest {
	best := 0
	for i := 1; i < len(s.Particles); i++ {
		if s.Particles[i].BestValue < s.Particles[best].BestValue {
			best = i
		}
	}
	p := s.Particles[best]
	return GlobalBest{Index: best, Position: p.BestPosition, Value: p.BestValue}
}

// Step advances every particle once, in index order. A particle that improves
// on the global best updates it immediately, so later particles in the same
// pass are pulled toward the new best.
func (s *Swarm) Step(rng Rand, p Params) error {
	iteration := s.steps
	s.steps++

	for i := range s.Particles {
		pt := &s.Particles[i]
		r1 := rng.Float64()
		r2 := rng.Float64()

		pt.Velocity = Vec2{
			X: p.W*pt.Velocity.X + p.C1*r1*(pt.BestPosition.X-pt.Position.X) + p.C2*r2*(s.Best.Position.X-pt.Position.X),
			Y: p.W*pt.Velocity.Y + p.C1*r1*(pt.BestPosition.Y-pt.Position.Y) + p.C2*r2*(s.Best.Position.Y-pt.Position.Y),
		}
		if p.VelocityClamp != nil {
			pt.Velocity = p.VelocityClamp.Clamp(pt.Velocity)
		}
		if !pt.Velocity.finite() {
			return &NumericOverflowError{Iteration: iteration, Particle: i, Quantity: "velocity"}
		}

		pt.Position = Vec2{X: pt.Position.X + pt.Velocity.X, Y: pt.Position.Y + pt.Velocity.Y}
		if p.PositionClamp != nil {
			pt.Position = p.PositionClamp.Clamp(pt.Position)
		}
		if !pt.Position.finite() {
			return &NumericOverflowError{Iteration: iteration, Particle: i, Quantity: "position"}
		}

		value := s.objective(pt.Position.X, pt.Position.Y)
		if !isFinite(value) {
			return &NumericOverflowError{Iteration: iteration, Particle: i, Quantity: "value"}
		}
		if value < pt.BestValue {
			pt.BestPosition = pt.Position
			pt.BestValue = value
		}

		if pt.BestValue < s.Best.Value {
			s.Best = GlobalBest{Index: i, Position: pt.BestPosition, Value: pt.BestValue}
		}
	}
	return nil
}

// Objective returns the function the swarm evaluates.
func (s *Swarm) Objective() Objective {
	return s.objective
}

// Snapshot returns a deep copy of the particle positions and the global best.
func (s *Swarm) Snapshot(iteration int) Snapshot {
	positions := make([]Vec2, len(s.Particles))
	for i, p := range s.Particles {
		positions[i] = p.Position
	}
	return Snapshot{Iteration: iteration, Positions: positions, Best: s.Best}
}

func uniform(rng Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
