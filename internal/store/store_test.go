package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTrace(t *testing.T, baseDir, runID string) {
	t.Helper()
	w, err := NewTraceWriter(baseDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	if err := w.Write(TraceEntry{Iteration: 0, Value: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
}

func TestListRuns_Empty(t *testing.T) {
	infos, err := ListRuns(t.TempDir())
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected no runs, got %d", len(infos))
	}
}

func TestListRuns_SortedAndSkipsEmptyDirs(t *testing.T) {
	baseDir := t.TempDir()
	writeTrace(t, baseDir, "run-b")
	writeTrace(t, baseDir, "run-a")

	// Directory without trace.jsonl is skipped
	if err := os.MkdirAll(filepath.Join(baseDir, "runs", "run-c"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	infos, err := ListRuns(baseDir)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(infos))
	}
	if infos[0].RunID != "run-a" || infos[1].RunID != "run-b" {
		t.Errorf("Unexpected order: %s, %s", infos[0].RunID, infos[1].RunID)
	}
	if infos[0].Size == 0 {
		t.Error("Expected non-zero trace size")
	}
}

func TestDeleteRun(t *testing.T) {
	baseDir := t.TempDir()
	writeTrace(t, baseDir, "run-x")

	if err := DeleteRun(baseDir, "run-x"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "runs", "run-x")); !os.IsNotExist(err) {
		t.Error("Run directory still exists")
	}

	err := DeleteRun(baseDir, "run-x")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := DeleteRun(baseDir, ""); err == nil {
		t.Error("Expected error for empty runID")
	}
}

func TestRunID_RejectsPathEscapes(t *testing.T) {
	root := t.TempDir()
	baseDir := filepath.Join(root, "data")
	victim := filepath.Join(root, "victim")
	if err := os.MkdirAll(victim, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	for _, id := range []string{"", ".", "..", "../victim", "../../victim", "a/b", `a\b`, "/abs"} {
		if err := DeleteRun(baseDir, id); !errors.Is(err, ErrInvalidRunID) {
			t.Errorf("DeleteRun(%q): expected ErrInvalidRunID, got %v", id, err)
		}
		if _, err := NewTraceWriter(baseDir, id, false); !errors.Is(err, ErrInvalidRunID) {
			t.Errorf("NewTraceWriter(%q): expected ErrInvalidRunID, got %v", id, err)
		}
		if _, err := NewTraceReader(baseDir, id); !errors.Is(err, ErrInvalidRunID) {
			t.Errorf("NewTraceReader(%q): expected ErrInvalidRunID, got %v", id, err)
		}
	}

	if _, err := os.Stat(victim); err != nil {
		t.Errorf("Directory outside the data dir was touched: %v", err)
	}
	if _, err := os.Stat(baseDir); !os.IsNotExist(err) {
		t.Errorf("No run directory should have been created, stat err %v", err)
	}

	if err := ValidateRunID("2f1c0a7e-run_1.v2"); err != nil {
		t.Errorf("Plain IDs should be accepted: %v", err)
	}
}
