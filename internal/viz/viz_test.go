package viz

import (
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/psoswarm/internal/pso"
)

var domain = pso.Bounds{Min: -10, Max: 10}

func TestRender_MarksParticlesAndBest(t *testing.T) {
	snap := pso.Snapshot{
		Positions: []pso.Vec2{{X: -5, Y: -5}, {X: 50, Y: 50}},
		Best:      pso.GlobalBest{Position: pso.Vec2{X: 3, Y: 2}, Value: 0},
	}
	img := Render(snap, pso.Paraboloid, domain, 200)
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())

	// (-5, -5) maps to pixel (50, 150)
	assert.Equal(t, particleColor, img.NRGBAAt(50, 150))
	// (3, 2) maps to pixel (130, 80)
	assert.Equal(t, bestColor, img.NRGBAAt(130, 80))
}

func TestRender_ContourIsBanded(t *testing.T) {
	img := Render(pso.Snapshot{Best: pso.GlobalBest{Position: pso.Vec2{X: 100, Y: 100}}}, pso.Paraboloid, domain, 100)

	seen := map[color.NRGBA]bool{}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			seen[img.NRGBAAt(x, y)] = true
		}
	}
	assert.LessOrEqual(t, len(seen), contourLevels)
	assert.Greater(t, len(seen), 1)

	// Low values near the minimum get the first palette color.
	assert.Equal(t, palette[0], img.NRGBAAt(65, 40))
}

func TestRender_NonFiniteObjective(t *testing.T) {
	nan := func(x, y float64) float64 { return math.NaN() }
	img := Render(pso.Snapshot{}, nan, domain, 10)
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, img.NRGBAAt(5, 5))
}

func TestPlotSink_WritesCheckpoints(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	sink, err := NewPlotSink(dir, pso.Paraboloid, domain)
	require.NoError(t, err)
	sink.Size = 64

	cfg := pso.DefaultConfig()
	_, err = pso.Run(cfg, pso.WithSnapshotSink(sink))
	require.NoError(t, err)
	require.NoError(t, sink.Err())

	want := []string{"iter_init.png", "iter_0000.png", "iter_0025.png", "iter_0050.png", "iter_0099.png"}
	written := sink.Written()
	require.Len(t, written, len(want))
	for i, name := range want {
		assert.Equal(t, filepath.Join(dir, name), written[i])

		f, err := os.Open(written[i])
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
	}
}

func TestPlotSink_RecordsWriteError(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewPlotSink(dir, pso.Paraboloid, domain)
	require.NoError(t, err)
	sink.Dir = filepath.Join(dir, "missing", "nested")

	sink.Snapshot(pso.Snapshot{Iteration: 3})
	assert.Error(t, sink.Err())
	assert.Empty(t, sink.Written())
}

func TestPlotSink_RecordsDeviceFullError(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	dir := t.TempDir()
	sink, err := NewPlotSink(dir, pso.Paraboloid, domain)
	require.NoError(t, err)
	sink.Size = 32
	require.NoError(t, os.Symlink("/dev/full", filepath.Join(dir, "iter_0003.png")))

	sink.Snapshot(pso.Snapshot{Iteration: 3})
	assert.Error(t, sink.Err())
	assert.Empty(t, sink.Written())
}
