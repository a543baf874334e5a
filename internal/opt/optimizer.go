package opt

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Name identifies the algorithm in reports
	Name() string

	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error)
}
