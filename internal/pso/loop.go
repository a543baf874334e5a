package pso

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// ReseedPolicy controls when the run's random stream is reset to Config.Seed.
type ReseedPolicy string

const (
	// ReseedOnce seeds a single stream at the start of the run.
	ReseedOnce ReseedPolicy = "once"

	// ReseedPerIteration resets the stream to the same seed before every
	// iteration, so each pass draws the identical coefficient sequence. It
	// exists for compatibility runs and is statistically weaker.
	ReseedPerIteration ReseedPolicy = "per-iteration"
)

// ParseReseedPolicy maps a name to a policy. An empty name selects ReseedOnce.
func ParseReseedPolicy(name string) (ReseedPolicy, error) {
	switch ReseedPolicy(name) {
	case "", ReseedOnce:
		return ReseedOnce, nil
	case ReseedPerIteration:
		return ReseedPerIteration, nil
	default:
		return "", invalid("Reseed", fmt.Sprintf("unknown policy %q", name))
	}
}

// Status is the terminal state of a run.
type Status string

const (
	MaxIterationsReached    Status = "max_iterations_reached"
	ConvergedBelowThreshold Status = "converged_below_threshold"
	Stagnated               Status = "stagnated"
)

// Config describes a complete optimization run.
type Config struct {
	Particles  int
	Iterations int
	Params

	PositionBounds Bounds
	VelocityBounds Bounds

	// Threshold stops the run once the global best falls strictly below it.
	// Nil disables early stopping.
	Threshold *float64

	Seed   int64
	Reseed ReseedPolicy

	// Objective defaults to Paraboloid when nil.
	Objective Objective

	// SnapshotEvery adds a checkpoint every N iterations (0 = only the
	// default checkpoints).
	SnapshotEvery int

	Stagnation StagnationConfig
}

// DefaultConfig returns the classic setup: 40 particles, 100 iterations,
// w=0.5, c1=c2=1.5, positions in [-10, 10] and velocities in [-1, 1].
func DefaultConfig() Config {
	return Config{
		Particles:      40,
		Iterations:     100,
		Params:         Params{W: 0.5, C1: 1.5, C2: 1.5},
		PositionBounds: Bounds{Min: -10, Max: 10},
		VelocityBounds: Bounds{Min: -1, Max: 1},
		Seed:           777,
		Reseed:         ReseedOnce,
	}
}

// Validate checks every field that can make a run fail before it starts.
func (c Config) Validate() error {
	if c.Particles <= 0 {
		return invalid("Particles", "must be positive")
	}
	if c.Iterations <= 0 {
		return invalid("Iterations", "must be positive")
	}
	if err := c.PositionBounds.Validate("PositionBounds"); err != nil {
		return err
	}
	if err := c.VelocityBounds.Validate("VelocityBounds"); err != nil {
		return err
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Threshold != nil && !isFinite(*c.Threshold) {
		return invalid("Threshold", "must be finite")
	}
	if _, err := ParseReseedPolicy(string(c.Reseed)); err != nil {
		return err
	}
	if c.SnapshotEvery < 0 {
		return invalid("SnapshotEvery", "cannot be negative")
	}
	return c.Stagnation.validate()
}

// Result is the outcome of a run.
type Result struct {
	Best   GlobalBest `json:"best"`
	Status Status     `json:"status"`

	// LastIteration is the 0-based index of the final step.
	LastIteration int `json:"lastIteration"`

	// Iterations is the number of steps executed.
	Iterations int `json:"iterations"`

	// History holds the global best value after each step.
	History []float64 `json:"history"`

	// Final is the swarm state when the run ended.
	Final Snapshot `json:"final"`

	Elapsed time.Duration `json:"elapsed"`
}

// Option configures the collaborators of a run.
type Option func(*runOptions)

type runOptions struct {
	reporters []Reporter
	sinks     []SnapshotSink
	logger    *slog.Logger
	ctx       context.Context
}

// WithReporter adds a progress reporter.
func WithReporter(r Reporter) Option {
	return func(o *runOptions) { o.reporters = append(o.reporters, r) }
}

// WithSnapshotSink adds a visualization sink.
func WithSnapshotSink(s SnapshotSink) Option {
	return func(o *runOptions) { o.sinks = append(o.sinks, s) }
}

// WithLogger replaces the default slog logger for run-level messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// WithContext lets ctx abort the run. It is checked before every step; a
// cancelled run returns an error wrapping ctx.Err() and no Result.
func WithContext(ctx context.Context) Option {
	return func(o *runOptions) { o.ctx = ctx }
}

// Run initializes a swarm and steps it until the iteration budget is spent or
// a stop condition fires. Configuration errors are returned before any state
// is created.
func Run(cfg Config, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.Default(), ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reseed, _ := ParseReseedPolicy(string(cfg.Reseed))

	objective := cfg.Objective
	if objective == nil {
		objective = Paraboloid
	}

	start := time.Now()
	rng := rand.New(rand.NewSource(cfg.Seed))

	swarm, err := Initialize(cfg.Particles, cfg.PositionBounds, cfg.VelocityBounds, objective, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize swarm: %w", err)
	}

	o.logger.Info("Starting optimization",
		"particles", cfg.Particles,
		"iterations", cfg.Iterations,
		"w", cfg.W, "c1", cfg.C1, "c2", cfg.C2,
		"seed", cfg.Seed,
		"reseed", reseed,
		"initial_best", swarm.Best.Value,
	)

	emit := func(iteration int) {
		if len(o.sinks) == 0 {
			return
		}
		snap := swarm.Snapshot(iteration)
		for _, s := range o.sinks {
			s.Snapshot(snap)
		}
	}
	emit(-1)

	tracker := newStagnationTracker(cfg.Stagnation, o.logger)
	result := &Result{
		Status:        MaxIterationsReached,
		LastIteration: -1,
		History:       make([]float64, 0, cfg.Iterations),
	}

	for i := 0; i < cfg.Iterations; i++ {
		if err := o.ctx.Err(); err != nil {
			o.logger.Info("Optimization cancelled", "iteration", i)
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}

		if reseed == ReseedPerIteration {
			rng.Seed(cfg.Seed)
		}

		if err := swarm.Step(rng, cfg.Params); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}

		best := swarm.Best.Value
		result.History = append(result.History, best)
		result.LastIteration = i
		result.Iterations = i + 1

		for _, r := range o.reporters {
			r.Report(i, best)
		}

		stop := false
		if cfg.Threshold != nil && best < *cfg.Threshold {
			result.Status = ConvergedBelowThreshold
			stop = true
		} else if tracker.Update(best) {
			result.Status = Stagnated
			stop = true
		}

		if stop || isCheckpoint(i, cfg.Iterations, cfg.SnapshotEvery) {
			emit(i)
		}
		if stop {
			break
		}
	}

	result.Best = swarm.Best
	result.Final = swarm.Snapshot(result.LastIteration)
	result.Elapsed = time.Since(start)

	o.logger.Info("Optimization complete",
		"status", result.Status,
		"iterations", result.Iterations,
		"global_best", result.Best.Value,
		"x", result.Best.Position.X,
		"y", result.Best.Position.Y,
		"elapsed", result.Elapsed,
	)

	return result, nil
}
