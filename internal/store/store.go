package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Traces are laid out as <baseDir>/runs/<runID>/trace.jsonl. They are written
// for inspection only; nothing reads them back into an optimization run.

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run trace.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// RunInfo summarizes a stored trace without loading its entries.
type RunInfo struct {
	RunID   string    `json:"runId"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// ErrInvalidRunID is returned for run IDs that are empty or would leave
// <baseDir>/runs.
var ErrInvalidRunID = errors.New("invalid run ID")

// ValidateRunID rejects IDs that are not a single plain path element.
func ValidateRunID(runID string) error {
	if runID == "" || runID == "." || runID == ".." ||
		strings.ContainsAny(runID, `/\`) || filepath.Base(runID) != runID {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}

func runDir(baseDir, runID string) string {
	return filepath.Join(baseDir, "runs", runID)
}

func tracePath(baseDir, runID string) string {
	return filepath.Join(runDir(baseDir, runID), "trace.jsonl")
}

// ListRuns returns every run under baseDir that has a trace file, sorted by ID.
func ListRuns(baseDir string) ([]RunInfo, error) {
	runsDir := filepath.Join(baseDir, "runs")

	// Check if runs directory exists
	if _, err := os.Stat(runsDir); os.IsNotExist(err) {
		return []RunInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat runs directory: %w", err)
	}

	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	infos := []RunInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := tracePath(baseDir, entry.Name())
		stat, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("Failed to stat trace for listing", "runID", entry.Name(), "error", err)
			}
			continue
		}

		infos = append(infos, RunInfo{
			RunID:   entry.Name(),
			Path:    path,
			Size:    stat.Size(),
			ModTime: stat.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].RunID < infos[j].RunID })

	slog.Debug("Listed runs", "count", len(infos))
	return infos, nil
}

// DeleteRun removes the run directory and everything in it.
func DeleteRun(baseDir, runID string) error {
	if err := ValidateRunID(runID); err != nil {
		return err
	}

	dir := runDir(baseDir, runID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &NotFoundError{RunID: runID}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	slog.Debug("Run deleted", "runID", runID, "path", dir)
	return nil
}
