package pso

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRand replays a fixed sequence of draws, cycling when exhausted.
type seqRand struct {
	vals []float64
	n    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.n%len(r.vals)]
	r.n++
	return v
}

func minBestValue(s *Swarm) float64 {
	best := math.Inf(1)
	for _, p := range s.Particles {
		best = math.Min(best, p.BestValue)
	}
	return best
}

func TestInitialize_Bounds(t *testing.T) {
	pos := Bounds{Min: -10, Max: 10}
	vel := Bounds{Min: -1, Max: 1}
	rng := rand.New(rand.NewSource(1))

	s, err := Initialize(200, pos, vel, Paraboloid, rng)
	require.NoError(t, err)
	require.Len(t, s.Particles, 200)

	for i, p := range s.Particles {
		assert.True(t, pos.Contains(p.Position), "particle %d position %v out of bounds", i, p.Position)
		assert.True(t, vel.Contains(p.Velocity), "particle %d velocity %v out of bounds", i, p.Velocity)
		assert.Equal(t, p.Position, p.BestPosition)
		assert.Equal(t, Paraboloid(p.Position.X, p.Position.Y), p.BestValue)
	}
	assert.Equal(t, minBestValue(s), s.Best.Value)
	assert.Equal(t, s.Particles[s.Best.Index].BestPosition, s.Best.Position)
}

func TestInitialize_TieGoesToFirst(t *testing.T) {
	// Every draw is 0.5, so all particles land on the same point.
	s, err := Initialize(5, Bounds{Min: 0, Max: 2}, Bounds{Min: 0, Max: 0}, Paraboloid, &seqRand{vals: []float64{0.5}})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Best.Index)
	assert.Equal(t, Vec2{X: 1, Y: 1}, s.Best.Position)
	assert.Equal(t, 5.0, s.Best.Value)
}

func TestInitialize_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		pos   Bounds
		vel   Bounds
		field string
	}{
		{"zero particles", 0, Bounds{-10, 10}, Bounds{-1, 1}, "Particles"},
		{"negative particles", -3, Bounds{-10, 10}, Bounds{-1, 1}, "Particles"},
		{"inverted position", 10, Bounds{10, -10}, Bounds{-1, 1}, "PositionBounds"},
		{"inverted velocity", 10, Bounds{-10, 10}, Bounds{1, -1}, "VelocityBounds"},
		{"infinite position", 10, Bounds{math.Inf(-1), 10}, Bounds{-1, 1}, "PositionBounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := &seqRand{vals: []float64{0.5}}
			s, err := Initialize(tt.n, tt.pos, tt.vel, Paraboloid, rng)
			require.Nil(t, s)
			require.ErrorIs(t, err, ErrInvalidConfiguration)

			var cfgErr *InvalidConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Zero(t, rng.n, "no draws should be consumed")
		})
	}
}

func TestInitialize_NonFiniteObjective(t *testing.T) {
	nan := func(x, y float64) float64 { return math.NaN() }
	_, err := Initialize(3, Bounds{-1, 1}, Bounds{-1, 1}, nan, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrNumericOverflow)
}

func TestStep_GlobalBestVisibleWithinPass(t *testing.T) {
	s := &Swarm{
		Particles: []Particle{
			{Position: Vec2{3, 1}, Velocity: Vec2{0, 1}, BestPosition: Vec2{3, 1}, BestValue: 1},
			{Position: Vec2{5, 5}, Velocity: Vec2{0, 0}, BestPosition: Vec2{3, 2.5}, BestValue: 0.25},
		},
		objective: Paraboloid,
	}
	s.Best = s.scanBest()
	require.Equal(t, 1, s.Best.Index)

	// Particle 0 draws r1=0, r2=0 and coasts onto the optimum. Particle 1
	// draws r1=0, r2=0.5 and with c2=2 jumps exactly onto the global best,
	// which must already be particle 0's new position.
	rng := &seqRand{vals: []float64{0, 0, 0, 0.5}}
	require.NoError(t, s.Step(rng, Params{W: 1, C1: 1.5, C2: 2}))

	assert.Equal(t, Vec2{3, 2}, s.Particles[0].Position)
	assert.Equal(t, 0.0, s.Particles[0].BestValue)
	assert.Equal(t, Vec2{3, 2}, s.Particles[1].Position)
	assert.Equal(t, 0.0, s.Particles[1].BestValue)

	// Particle 1 only ties, so the global best stays with particle 0.
	assert.Equal(t, GlobalBest{Index: 0, Position: Vec2{3, 2}, Value: 0}, s.Best)
}

func TestStep_Monotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s, err := Initialize(30, Bounds{-10, 10}, Bounds{-1, 1}, Rastrigin, rng)
	require.NoError(t, err)

	params := Params{W: 0.7, C1: 1.5, C2: 1.5}
	for iter := 0; iter < 200; iter++ {
		before := make([]float64, len(s.Particles))
		for i, p := range s.Particles {
			before[i] = p.BestValue
		}
		prevGlobal := s.Best.Value

		require.NoError(t, s.Step(rng, params))

		for i, p := range s.Particles {
			require.LessOrEqual(t, p.BestValue, before[i], "particle %d regressed at iteration %d", i, iter)
			require.Equal(t, Rastrigin(p.BestPosition.X, p.BestPosition.Y), p.BestValue)
		}
		require.LessOrEqual(t, s.Best.Value, prevGlobal)
		require.Equal(t, minBestValue(s), s.Best.Value)
		require.Equal(t, s.Particles[s.Best.Index].BestValue, s.Best.Value)
	}
}

func TestStep_Clamps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s, err := Initialize(20, Bounds{-10, 10}, Bounds{-1, 1}, Paraboloid, rng)
	require.NoError(t, err)

	vclamp := Bounds{Min: -0.25, Max: 0.25}
	pclamp := Bounds{Min: -10, Max: 10}
	params := Params{W: 2, C1: 2, C2: 2, VelocityClamp: &vclamp, PositionClamp: &pclamp}

	for iter := 0; iter < 50; iter++ {
		require.NoError(t, s.Step(rng, params))
		for _, p := range s.Particles {
			require.True(t, vclamp.Contains(p.Velocity))
			require.True(t, pclamp.Contains(p.Position))
		}
	}
}

func TestStep_NumericOverflow(t *testing.T) {
	s, err := Initialize(4, Bounds{-1, 1}, Bounds{2, 2}, Paraboloid, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	err = s.Step(rand.New(rand.NewSource(3)), Params{W: math.MaxFloat64})
	require.ErrorIs(t, err, ErrNumericOverflow)

	var overflow *NumericOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, "velocity", overflow.Quantity)
	assert.Equal(t, 0, overflow.Particle)
	assert.Equal(t, 0, overflow.Iteration)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s, err := Initialize(3, Bounds{-1, 1}, Bounds{-1, 1}, Paraboloid, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	snap := s.Snapshot(7)
	require.Equal(t, 7, snap.Iteration)
	original := s.Particles[0].Position
	snap.Positions[0] = Vec2{100, 100}
	assert.Equal(t, original, s.Particles[0].Position)
}
