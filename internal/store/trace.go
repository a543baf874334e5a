package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TraceEntry represents a single entry in the global-best history.
// Each entry is serialized as a JSON line in trace.jsonl.
type TraceEntry struct {
	// Iteration is the optimization iteration number
	Iteration int `json:"iteration"`

	// Value is the global best value after this iteration
	Value float64 `json:"value"`

	// Timestamp records when this trace entry was created
	Timestamp time.Time `json:"timestamp"`
}

// TraceWriter writes trace entries to a JSONL file.
// It uses buffered I/O for performance and is safe for concurrent use.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewTraceWriter creates a new trace writer for the given run.
// The trace file is created at <baseDir>/runs/<runID>/trace.jsonl.
// If append is true, new entries are appended to existing file.
func NewTraceWriter(baseDir, runID string, append bool) (*TraceWriter, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(runDir(baseDir, runID), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := tracePath(baseDir, runID)

	var file *os.File
	var err error
	if append {
		file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, 64*1024), // 64KB buffer
		path:   path,
	}, nil
}

// Write appends a trace entry to the file.
// The entry is buffered and will be written on Flush() or Close().
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}

	if _, err := tw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := tw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// Flush writes any buffered data to the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace writer: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace file: %w", err)
	}

	return nil
}

// Close flushes buffered data and closes the trace file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		tw.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}

	if err := tw.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}

	return nil
}

// Path returns the filesystem path to the trace file.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// TraceReader reads trace entries from a JSONL file.
type TraceReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewTraceReader creates a new trace reader for the given run.
func NewTraceReader(baseDir, runID string) (*TraceReader, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}
	file, err := os.Open(tracePath(baseDir, runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{RunID: runID}
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceReader{
		file:    file,
		scanner: bufio.NewScanner(file),
	}, nil
}

// Read reads the next trace entry from the file.
// Returns io.EOF when no more entries are available.
func (tr *TraceReader) Read() (*TraceEntry, error) {
	if !tr.scanner.Scan() {
		if err := tr.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan trace line: %w", err)
		}
		return nil, io.EOF
	}

	var entry TraceEntry
	if err := json.Unmarshal(tr.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace entry: %w", err)
	}

	return &entry, nil
}

// ReadAll reads all trace entries from the file.
func (tr *TraceReader) ReadAll() ([]TraceEntry, error) {
	var entries []TraceEntry

	for {
		entry, err := tr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// Close closes the trace reader.
func (tr *TraceReader) Close() error {
	if err := tr.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}
