package pso

import "math"

// Vec2 is a point or velocity in the plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) finite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Bounds is a closed interval [Min, Max] applied to both axes.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Validate reports inverted or non-finite bounds. field names the bound pair
// in the returned error.
func (b Bounds) Validate(field string) error {
	if !isFinite(b.Min) || !isFinite(b.Max) {
		return invalid(field, "must be finite")
	}
	if b.Min > b.Max {
		return invalid(field, "min must not exceed max")
	}
	return nil
}

// Contains reports whether v lies inside b on both axes.
func (b Bounds) Contains(v Vec2) bool {
	return v.X >= b.Min && v.X <= b.Max && v.Y >= b.Min && v.Y <= b.Max
}

// Clamp limits both components of v to b.
func (b Bounds) Clamp(v Vec2) Vec2 {
	return Vec2{X: clamp(v.X, b.Min, b.Max), Y: clamp(v.Y, b.Min, b.Max)}
}

// Particle is one candidate solution and its search memory.
type Particle struct {
	Position     Vec2    `json:"position"`
	Velocity     Vec2    `json:"velocity"`
	BestPosition Vec2    `json:"bestPosition"`
	BestValue    float64 `json:"bestValue"`
}

// GlobalBest is an owned copy of the best personal best in the swarm.
// Index is the particle that holds it.
type GlobalBest struct {
	Index    int     `json:"index"`
	Position Vec2    `json:"position"`
	Value    float64 `json:"value"`
}

func clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
