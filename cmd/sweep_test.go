package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/psoswarm/internal/pso"
	"github.com/cwbudde/psoswarm/internal/sweep"
)

func TestNewBaseline(t *testing.T) {
	base := pso.DefaultConfig()

	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{name: "", wantName: ""},
		{name: "mayfly", wantName: "mayfly"},
		{name: "pso", wantName: "pso"},
		{name: "cmaes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("baseline="+tt.name, func(t *testing.T) {
			o, err := newBaseline(tt.name, base)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newBaseline failed: %v", err)
			}
			if tt.wantName == "" {
				if o != nil {
					t.Errorf("Expected no baseline, got %s", o.Name())
				}
				return
			}
			if o == nil || o.Name() != tt.wantName {
				t.Fatalf("Expected %s baseline, got %v", tt.wantName, o)
			}
		})
	}
}

func TestSweepCommand_PSOBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	yml := "iterations: 10\nsweep:\n  w: [0.5]\n  c1: [1.5]\n  c2: [1.5]\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := executeRoot(t, "--config", path, "sweep", "--json", "--baseline", "pso")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	var report sweep.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
	}
	if len(report.Entries) != 1 {
		t.Fatalf("Expected 1 grid entry, got %d", len(report.Entries))
	}
	if report.Baseline == nil || report.Baseline.Optimizer != "pso" {
		t.Fatalf("Expected a pso baseline, got %+v", report.Baseline)
	}
	if report.Baseline.Best.Value != report.Entries[0].Best.Value {
		t.Errorf("pso baseline at the grid point should match the grid run: %v vs %v",
			report.Baseline.Best.Value, report.Entries[0].Best.Value)
	}
}
