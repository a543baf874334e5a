package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface.
// It serves as a baseline when comparing swarm parameter settings.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

func (m *MayflyAdapter) Name() string { return "mayfly" }

// Run executes the Mayfly optimization using the external library
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error) {
	if err := checkBounds(lower, upper, dim); err != nil {
		return nil, 0, err
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = eval
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// The library takes scalar bounds; the first dimension's bounds apply to all.
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]

	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly optimization failed: %w", err)
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost, nil
}

func checkBounds(lower, upper []float64, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if len(lower) < dim || len(upper) < dim {
		return fmt.Errorf("bounds shorter than dimension %d", dim)
	}
	return nil
}
