package pso

import (
	"fmt"
	"math"
	"sort"
)

// Objective is the scalar function being minimized. It must be pure.
type Objective func(x, y float64) float64

// Paraboloid is the default objective, (x-3)^2 + (y-2)^2, with its unique
// minimum 0 at (3, 2).
func Paraboloid(x, y float64) float64 {
	dx, dy := x-3, y-2
	return dx*dx + dy*dy
}

// Sphere has its minimum 0 at the origin.
func Sphere(x, y float64) float64 {
	return x*x + y*y
}

// Rastrigin is multimodal with its global minimum 0 at the origin.
func Rastrigin(x, y float64) float64 {
	return 20 + x*x - 10*math.Cos(2*math.Pi*x) + y*y - 10*math.Cos(2*math.Pi*y)
}

// Himmelblau has four global minima of value 0, one of them at (3, 2).
func Himmelblau(x, y float64) float64 {
	a := x*x + y - 11
	b := x + y*y - 7
	return a*a + b*b
}

var objectives = map[string]Objective{
	"paraboloid": Paraboloid,
	"sphere":     Sphere,
	"rastrigin":  Rastrigin,
	"himmelblau": Himmelblau,
}

// LookupObjective returns the named objective. An empty name selects Paraboloid.
func LookupObjective(name string) (Objective, error) {
	if name == "" {
		return Paraboloid, nil
	}
	fn, ok := objectives[name]
	if !ok {
		return nil, invalid("Objective", fmt.Sprintf("unknown objective %q (available: %v)", name, ObjectiveNames()))
	}
	return fn, nil
}

// ObjectiveNames lists the registered objective names in sorted order.
func ObjectiveNames() []string {
	names := make([]string, 0, len(objectives))
	for name := range objectives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
