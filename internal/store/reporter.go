package store

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultFlushEvery is how many entries a TraceReporter buffers before
// flushing, so traces of running jobs can be read while they grow.
const DefaultFlushEvery = 50

// TraceReporter records every reported iteration to a TraceWriter. The first
// write error is kept and returned by Err; later reports are dropped.
type TraceReporter struct {
	writer     *TraceWriter
	flushEvery int

	mu      sync.Mutex
	pending int
	err     error
}

// NewTraceReporter wraps w and flushes every DefaultFlushEvery entries.
func NewTraceReporter(w *TraceWriter) *TraceReporter {
	return &TraceReporter{writer: w, flushEvery: DefaultFlushEvery}
}

// Report implements pso.Reporter.
func (r *TraceReporter) Report(iteration int, best float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	entry := TraceEntry{Iteration: iteration, Value: best, Timestamp: time.Now()}
	if err := r.writer.Write(entry); err != nil {
		slog.Error("Failed to write trace entry", "path", r.writer.Path(), "error", err)
		r.err = err
		return
	}

	r.pending++
	if r.flushEvery > 0 && r.pending >= r.flushEvery {
		r.pending = 0
		if err := r.writer.Flush(); err != nil {
			slog.Error("Failed to flush trace", "path", r.writer.Path(), "error", err)
			r.err = err
		}
	}
}

// Err returns the first write error, if any.
func (r *TraceReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
