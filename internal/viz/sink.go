package viz

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cwbudde/psoswarm/internal/pso"
)

// DefaultSize is the edge length of rendered plots in pixels.
const DefaultSize = 400

// PlotSink renders every snapshot it receives to <Dir>/iter_NNNN.png, or
// <Dir>/iter_init.png for the initial state. It implements pso.SnapshotSink.
type PlotSink struct {
	Dir       string
	Objective pso.Objective
	Domain    pso.Bounds
	Size      int

	mu      sync.Mutex
	written []string
	err     error
}

// NewPlotSink creates dir and returns a sink that plots over domain.
func NewPlotSink(dir string, objective pso.Objective, domain pso.Bounds) (*PlotSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	return &PlotSink{Dir: dir, Objective: objective, Domain: domain, Size: DefaultSize}, nil
}

// Snapshot implements pso.SnapshotSink. Write failures are logged and the
// first one is kept for Err.
func (s *PlotSink) Snapshot(snap pso.Snapshot) {
	path := s.pathFor(snap.Iteration)
	if err := s.write(path, snap); err != nil {
		slog.Error("Failed to write plot", "path", path, "error", err)
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.written = append(s.written, path)
	s.mu.Unlock()
	slog.Debug("Plot written", "path", path, "iteration", snap.Iteration)
}

func (s *PlotSink) pathFor(iteration int) string {
	if iteration < 0 {
		return filepath.Join(s.Dir, "iter_init.png")
	}
	return filepath.Join(s.Dir, fmt.Sprintf("iter_%04d.png", iteration))
}

func (s *PlotSink) write(path string, snap pso.Snapshot) (err error) {
	size := s.Size
	if size <= 0 {
		size = DefaultSize
	}
	img := Render(snap, s.Objective, s.Domain, size)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// Written returns the paths of all plots written so far.
func (s *PlotSink) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.written...)
}

// Err returns the first write error, if any.
func (s *PlotSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
