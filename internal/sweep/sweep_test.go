package sweep

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cwbudde/psoswarm/internal/opt"
	"github.com/cwbudde/psoswarm/internal/pso"
)

func TestGrid_Points(t *testing.T) {
	g := Grid{W: []float64{0.4, 0.5}, C1: []float64{1.5}, C2: []float64{1, 2}}
	want := []Point{
		{W: 0.4, C1: 1.5, C2: 1},
		{W: 0.4, C1: 1.5, C2: 2},
		{W: 0.5, C1: 1.5, C2: 1},
		{W: 0.5, C1: 1.5, C2: 2},
	}
	if diff := cmp.Diff(want, g.Points()); diff != "" {
		t.Errorf("Points() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, Grid{W: []float64{1}}.Points())
}

func smallConfig() pso.Config {
	cfg := pso.DefaultConfig()
	cfg.Iterations = 30
	return cfg
}

func TestRun_OrderAndResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	grid := Grid{W: []float64{0.4, 0.7}, C1: []float64{1.5}, C2: []float64{1.5, 2.0}}
	report, err := Run(context.Background(), smallConfig(), grid, Options{})
	require.NoError(t, err)
	require.Len(t, report.Entries, 4)

	for i, p := range grid.Points() {
		e := report.Entries[i]
		require.NoError(t, e.Err)
		assert.Equal(t, p, e.Point)
		assert.Equal(t, "pso", e.Optimizer)

		cfg := smallConfig()
		cfg.W, cfg.C1, cfg.C2 = p.W, p.C1, p.C2
		direct, err := pso.Run(cfg)
		require.NoError(t, err)
		assert.Equal(t, direct.Best, e.Best, "entry %d should match a direct run", i)
	}
	assert.Nil(t, report.Baseline)
}

func TestRun_ConcurrencyDoesNotChangeResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	grid := Grid{W: []float64{0.4, 0.5, 0.7}, C1: []float64{1.0, 2.0}, C2: []float64{1.5}}
	serial, err := Run(context.Background(), smallConfig(), grid, Options{Concurrency: 1})
	require.NoError(t, err)
	parallel, err := Run(context.Background(), smallConfig(), grid, Options{Concurrency: 4})
	require.NoError(t, err)

	if diff := cmp.Diff(serial, parallel); diff != "" {
		t.Errorf("reports differ (-serial +parallel):\n%s", diff)
	}
}

func TestRun_RecordsFailures(t *testing.T) {
	grid := Grid{W: []float64{0.5, math.NaN()}, C1: []float64{1.5}, C2: []float64{1.5}}
	report, err := Run(context.Background(), smallConfig(), grid, Options{})
	require.NoError(t, err)

	assert.NoError(t, report.Entries[0].Err)
	assert.ErrorIs(t, report.Entries[1].Err, pso.ErrInvalidConfiguration)

	best, ok := report.Best()
	require.True(t, ok)
	assert.Equal(t, 0.5, best.Point.W)
}

func TestRun_EmptyGrid(t *testing.T) {
	_, err := Run(context.Background(), smallConfig(), Grid{}, Options{})
	require.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grid := Grid{W: []float64{0.5}, C1: []float64{1.5}, C2: []float64{1.5}}
	_, err := Run(ctx, smallConfig(), grid, Options{})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestRun_CancelledMidRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	cfg := pso.DefaultConfig()
	cfg.Iterations = 1_000_000
	grid := Grid{W: []float64{0.5, 0.6}, C1: []float64{1.5}, C2: []float64{1.5}}

	start := time.Now()
	_, err := Run(ctx, cfg, grid, Options{Concurrency: 2})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_PSOBaseline(t *testing.T) {
	grid := Grid{W: []float64{0.5}, C1: []float64{1.5}, C2: []float64{1.5}}
	report, err := Run(context.Background(), smallConfig(), grid, Options{Baseline: opt.NewPSO(smallConfig())})
	require.NoError(t, err)

	require.NotNil(t, report.Baseline)
	require.NoError(t, report.Baseline.Err)
	assert.Equal(t, "pso", report.Baseline.Optimizer)
	assert.Equal(t, report.Entries[0].Best.Value, report.Baseline.Best.Value)
}

func TestRun_Baseline(t *testing.T) {
	grid := Grid{W: []float64{0.5}, C1: []float64{1.5}, C2: []float64{1.5}}
	report, err := Run(context.Background(), smallConfig(), grid, Options{Baseline: opt.NewMayfly(50, 20, 1)})
	require.NoError(t, err)

	require.NotNil(t, report.Baseline)
	require.NoError(t, report.Baseline.Err)
	assert.Equal(t, "mayfly", report.Baseline.Optimizer)
	assert.Less(t, report.Baseline.Best.Value, 1.0)
}

func TestReport_Best(t *testing.T) {
	r := &Report{Entries: []Entry{
		{Point: Point{W: 1}, Best: pso.GlobalBest{Value: 3}},
		{Point: Point{W: 2}, Best: pso.GlobalBest{Value: 1}},
		{Point: Point{W: 3}, Best: pso.GlobalBest{Value: 1}},
		{Point: Point{W: 4}, Err: errors.New("boom")},
	}}
	best, ok := r.Best()
	require.True(t, ok)
	assert.Equal(t, 2.0, best.Point.W)

	_, ok = (&Report{Entries: []Entry{{Err: errors.New("boom")}}}).Best()
	assert.False(t, ok)
}
