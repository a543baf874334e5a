// Package sweep runs the swarm over a grid of (w, c1, c2) settings and
// collects the resulting global bests for comparison.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/psoswarm/internal/opt"
	"github.com/cwbudde/psoswarm/internal/pso"
)

// Point is one coefficient setting.
type Point struct {
	W  float64 `json:"w"`
	C1 float64 `json:"c1"`
	C2 float64 `json:"c2"`
}

// Grid lists candidate values per coefficient.
type Grid struct {
	W  []float64
	C1 []float64
	C2 []float64
}

// Points expands the grid into its Cartesian product, w varying slowest.
func (g Grid) Points() []Point {
	points := make([]Point, 0, len(g.W)*len(g.C1)*len(g.C2))
	for _, w := range g.W {
		for _, c1 := range g.C1 {
			for _, c2 := range g.C2 {
				points = append(points, Point{W: w, C1: c1, C2: c2})
			}
		}
	}
	return points
}

// Entry is the outcome of one configuration.
type Entry struct {
	Optimizer  string         `json:"optimizer"`
	Point      Point          `json:"point"`
	Best       pso.GlobalBest `json:"best"`
	Status     pso.Status     `json:"status,omitempty"`
	Iterations int            `json:"iterations"`
	Err        error          `json:"-"`
}

// Report holds the sweep results in grid order.
type Report struct {
	Entries  []Entry `json:"entries"`
	Baseline *Entry  `json:"baseline,omitempty"`
}

// Best returns the successful grid entry with the lowest value; the earliest
// wins ties. ok is false when every entry failed.
func (r *Report) Best() (best Entry, ok bool) {
	bestValue := math.Inf(1)
	for _, e := range r.Entries {
		if e.Err != nil {
			continue
		}
		if !ok || e.Best.Value < bestValue {
			best, bestValue, ok = e, e.Best.Value, true
		}
	}
	return best, ok
}

// Options tunes how the sweep executes.
type Options struct {
	// Concurrency bounds how many runs execute at once (<= 1 runs them one by one).
	// Each run owns its swarm and random stream, so results do not depend on it.
	Concurrency int

	// Baseline, when set, is run once on the same objective and bounds.
	Baseline opt.Optimizer
}

// Run executes base once per grid point with the point's coefficients.
// Failing configurations are recorded in their Entry; only cancellation of
// ctx aborts the sweep.
func Run(ctx context.Context, base pso.Config, grid Grid, opts Options) (*Report, error) {
	points := grid.Points()
	if len(points) == 0 {
		return nil, errors.New("sweep grid is empty")
	}

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	slog.Info("Starting sweep", "configurations", len(points), "concurrency", limit)

	entries := make([]Entry, len(points))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, p := range points {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			cfg := base
			cfg.W, cfg.C1, cfg.C2 = p.W, p.C1, p.C2

			entry := Entry{Optimizer: "pso", Point: p}
			result, err := pso.Run(cfg,
				pso.WithContext(egCtx),
				pso.WithLogger(slog.Default().With("w", p.W, "c1", p.C1, "c2", p.C2)),
			)
			if ctxErr := egCtx.Err(); err != nil && ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				slog.Warn("Sweep configuration failed", "w", p.W, "c1", p.C1, "c2", p.C2, "error", err)
				entry.Err = err
			} else {
				entry.Best = result.Best
				entry.Status = result.Status
				entry.Iterations = result.Iterations
			}
			entries[i] = entry
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("sweep aborted: %w", err)
	}

	report := &Report{Entries: entries}

	if opts.Baseline != nil {
		baseline := runBaseline(opts.Baseline, base)
		report.Baseline = &baseline
	}

	if best, ok := report.Best(); ok {
		slog.Info("Sweep complete",
			"best_value", best.Best.Value,
			"w", best.Point.W, "c1", best.Point.C1, "c2", best.Point.C2,
		)
	}
	return report, nil
}

func runBaseline(o opt.Optimizer, base pso.Config) Entry {
	objective := base.Objective
	if objective == nil {
		objective = pso.Paraboloid
	}
	eval := func(x []float64) float64 { return objective(x[0], x[1]) }
	lower := []float64{base.PositionBounds.Min, base.PositionBounds.Min}
	upper := []float64{base.PositionBounds.Max, base.PositionBounds.Max}

	entry := Entry{Optimizer: o.Name()}
	pos, value, err := o.Run(eval, lower, upper, 2)
	if err != nil {
		slog.Warn("Baseline optimizer failed", "optimizer", o.Name(), "error", err)
		entry.Err = err
		return entry
	}
	entry.Best = pso.GlobalBest{Index: -1, Position: pso.Vec2{X: pos[0], Y: pos[1]}, Value: value}
	return entry
}
