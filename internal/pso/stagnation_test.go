package pso

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStagnationTracker(t *testing.T) {
	tr := newStagnationTracker(StagnationConfig{Enabled: true, Patience: 2, MinImprovement: 0.1}, nil)

	assert.False(t, tr.Update(100)) // first value
	assert.False(t, tr.Update(50))  // 50% improvement
	assert.False(t, tr.Update(48))  // 4%, stale 1
	assert.True(t, tr.Update(47))   // still under 10% of 50, stale 2
}

func TestStagnationTracker_Disabled(t *testing.T) {
	tr := newStagnationTracker(StagnationConfig{}, nil)
	for i := 0; i < 100; i++ {
		assert.False(t, tr.Update(1))
	}
}

func TestStagnationTracker_ZeroValue(t *testing.T) {
	tr := newStagnationTracker(StagnationConfig{Enabled: true, Patience: 1}, nil)
	assert.False(t, tr.Update(0))
	assert.True(t, tr.Update(0))
}

func TestStagnationTracker_UsesRunLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("job_id", "abc")

	tr := newStagnationTracker(StagnationConfig{Enabled: true, Patience: 1}, logger)
	tr.Update(1)
	assert.True(t, tr.Update(1))
	assert.Contains(t, buf.String(), "Stagnation detected")
	assert.Contains(t, buf.String(), `"job_id":"abc"`)
}
