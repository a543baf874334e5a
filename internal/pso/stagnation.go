package pso

import (
	"log/slog"
	"math"
)

// StagnationConfig stops a run when the global best has not improved enough
// for Patience consecutive iterations.
type StagnationConfig struct {
	// Enabled controls whether stagnation detection is active
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Patience is the number of iterations without significant improvement
	// tolerated before stopping
	Patience int `yaml:"patience" json:"patience"`

	// MinImprovement is the minimum relative improvement that counts as progress.
	// Relative improvement = (last - current) / |last|
	MinImprovement float64 `yaml:"min_improvement" json:"minImprovement"`
}

// DefaultStagnationConfig returns an enabled config with moderate patience.
func DefaultStagnationConfig() StagnationConfig {
	return StagnationConfig{
		Enabled:        true,
		Patience:       20,
		MinImprovement: 1e-6,
	}
}

func (c StagnationConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Patience <= 0 {
		return invalid("Stagnation.Patience", "must be positive when enabled")
	}
	if !isFinite(c.MinImprovement) || c.MinImprovement < 0 {
		return invalid("Stagnation.MinImprovement", "must be finite and non-negative")
	}
	return nil
}

// stagnationTracker tracks the global best history and detects when progress
// has stalled.
type stagnationTracker struct {
	config          StagnationConfig
	seen            int
	lastSignificant float64 // last value that was a significant improvement
	staleCount      int
	logger          *slog.Logger
}

func newStagnationTracker(config StagnationConfig, logger *slog.Logger) *stagnationTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &stagnationTracker{
		config:          config,
		lastSignificant: math.Inf(1),
		logger:          logger,
	}
}

// Update records the global best after an iteration and returns true once
// the run has stagnated.
func (t *stagnationTracker) Update(best float64) bool {
	if !t.config.Enabled {
		return false
	}

	t.seen++
	if t.seen == 1 {
		t.lastSignificant = best
		return false
	}

	var improvement float64
	if t.lastSignificant != 0 {
		improvement = (t.lastSignificant - best) / math.Abs(t.lastSignificant)
	}

	// Flat iterations never count as progress, even with MinImprovement 0.
	if improvement > 0 && improvement >= t.config.MinImprovement {
		t.lastSignificant = best
		t.staleCount = 0
		return false
	}

	t.staleCount++
	if t.staleCount >= t.config.Patience {
		t.logger.Info("Stagnation detected - stopping early",
			"stale_count", t.staleCount,
			"patience", t.config.Patience,
			"global_best", best,
		)
		return true
	}
	return false
}
