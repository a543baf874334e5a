package opt

import (
	"math"
	"testing"

	"github.com/cwbudde/psoswarm/internal/pso"
)

func TestPSOAdapterOnSphere(t *testing.T) {
	var optimizer Optimizer = NewPSO(pso.DefaultConfig())

	best, cost, err := optimizer.Run(sphere, []float64{-10, -10}, []float64{10, 10}, 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if cost > 1e-6 {
		t.Errorf("Expected cost near 0, got %g", cost)
	}
	for i, v := range best {
		if math.Abs(v) > 1e-3 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
	if optimizer.Name() != "pso" {
		t.Errorf("Expected name pso, got %s", optimizer.Name())
	}
}

func TestPSOAdapterRejectsOtherDimensions(t *testing.T) {
	_, _, err := NewPSO(pso.DefaultConfig()).Run(sphere, []float64{-1, -1, -1}, []float64{1, 1, 1}, 3)
	if err == nil {
		t.Fatal("Expected error for 3-D problem")
	}
}

func TestPSOAdapterInvalidBounds(t *testing.T) {
	_, _, err := NewPSO(pso.DefaultConfig()).Run(sphere, []float64{5, 5}, []float64{-5, -5}, 2)
	if err == nil {
		t.Fatal("Expected error for inverted bounds")
	}
}
