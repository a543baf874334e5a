package pso

import (
	"fmt"
	"io"
	"log/slog"
)

// Snapshot is a read-only copy of the swarm at a checkpoint. Iteration is -1
// for the state right after initialization.
type Snapshot struct {
	Iteration int        `json:"iteration"`
	Positions []Vec2     `json:"positions"`
	Best      GlobalBest `json:"best"`
}

// Reporter receives the global best value after every completed iteration.
// It has no influence on control flow.
type Reporter interface {
	Report(iteration int, best float64)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(iteration int, best float64)

func (f ReporterFunc) Report(iteration int, best float64) { f(iteration, best) }

// SnapshotSink receives swarm snapshots at checkpoints.
type SnapshotSink interface {
	Snapshot(s Snapshot)
}

// SnapshotFunc adapts a function to SnapshotSink.
type SnapshotFunc func(s Snapshot)

func (f SnapshotFunc) Snapshot(s Snapshot) { f(s) }

// LogReporter logs progress at debug level.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) Report(iteration int, best float64) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Iteration complete", "iteration", iteration, "global_best", best)
}

// PrintReporter writes one "Iteration i : value" line per iteration.
type PrintReporter struct {
	W io.Writer
}

func (r PrintReporter) Report(iteration int, best float64) {
	fmt.Fprintf(r.W, "Iteration %d : %v\n", iteration, best)
}

// isCheckpoint reports whether a snapshot is due after iteration i of total.
// Checkpoints are the first and last iterations, the quarter and half marks
// when total divides evenly, plus every `every` iterations when every > 0.
func isCheckpoint(i, total, every int) bool {
	if i == 0 || i == total-1 {
		return true
	}
	if total%4 == 0 && i == total/4 {
		return true
	}
	if total%2 == 0 && i == total/2 {
		return true
	}
	return every > 0 && i%every == 0
}
