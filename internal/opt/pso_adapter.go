package opt

import (
	"fmt"

	"github.com/cwbudde/psoswarm/internal/pso"
)

// PSOAdapter exposes the 2-D particle swarm through the Optimizer interface.
// Only dim == 2 is supported.
type PSOAdapter struct {
	config pso.Config
}

// NewPSO creates an adapter that runs cfg with the bounds and objective
// supplied to Run.
func NewPSO(cfg pso.Config) *PSOAdapter {
	return &PSOAdapter{config: cfg}
}

func (p *PSOAdapter) Name() string { return "pso" }

// Run executes a swarm over the square [lower[0], upper[0]]^2.
func (p *PSOAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error) {
	if dim != 2 {
		return nil, 0, fmt.Errorf("pso supports exactly 2 dimensions, got %d", dim)
	}
	if err := checkBounds(lower, upper, dim); err != nil {
		return nil, 0, err
	}

	cfg := p.config
	cfg.PositionBounds = pso.Bounds{Min: lower[0], Max: upper[0]}
	cfg.Objective = func(x, y float64) float64 {
		return eval([]float64{x, y})
	}

	result, err := pso.Run(cfg)
	if err != nil {
		return nil, 0, err
	}
	return []float64{result.Best.Position.X, result.Best.Position.Y}, result.Best.Value, nil
}
