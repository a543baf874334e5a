package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/psoswarm/internal/pso"
	"github.com/cwbudde/psoswarm/internal/store"
	"github.com/cwbudde/psoswarm/internal/viz"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	addr       string
	dataDir    string
	server     *http.Server

	// ctx is cancelled on shutdown; running jobs observe it
	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup
}

// NewServer creates a new HTTP server. dataDir enables per-job traces when not empty.
func NewServer(addr, dataDir string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		jobManager: NewJobManager(),
		addr:       addr,
		dataDir:    dataDir,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/objectives", s.handleObjectives)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.addr, "data_dir", s.dataDir)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server and waits for running jobs
func (s *Server) Shutdown(ctx context.Context) error {
	running := s.jobManager.GetRunningJobs()
	slog.Info("Shutting down HTTP server", "running_jobs", len(running))
	for _, job := range running {
		slog.Info("Cancelling job", "job_id", job.ID, "iterations", job.Iterations)
	}
	s.cancel()

	err := s.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// submit creates a job and runs it in the background
func (s *Server) submit(config JobConfig) Job {
	job := s.jobManager.CreateJob(config)

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		if err := runJob(s.ctx, s.jobManager, s.dataDir, job.ID); err != nil {
			slog.Debug("Job ended with error", "job_id", job.ID, "error", err)
		}
	}()

	return job
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	if len(parts) == 1 || parts[1] == "status" {
		s.handleGetJobStatus(w, r, jobID)
		return
	}

	switch parts[1] {
	case "stream":
		s.handleJobStream(w, r, jobID)
	case "plot.png":
		s.handleGetPlot(w, r, jobID)
	case "trace":
		s.handleGetTrace(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	config = config.withDefaults()
	if _, err := config.RunConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, s.submit(config))
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	response := map[string]interface{}{
		"id":         job.ID,
		"state":      job.State,
		"status":     job.Status,
		"config":     job.Config,
		"best":       job.Best,
		"bestValue":  job.BestValue,
		"iterations": job.Iterations,
		"elapsed":    elapsed.Seconds(),
		"rate":       rate(job.Iterations, elapsed),
		"startTime":  job.StartTime,
		"endTime":    job.EndTime,
		"error":      job.Error,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetPlot handles GET /api/v1/jobs/:id/plot.png?size=N
func (s *Server) handleGetPlot(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if job.final == nil {
		http.Error(w, "No results yet", http.StatusNotFound)
		return
	}

	size := viz.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 2000 {
			http.Error(w, "size must be between 1 and 2000", http.StatusBadRequest)
			return
		}
		size = n
	}

	objective, err := pso.LookupObjective(job.Config.Objective)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writePNG(w, viz.Render(*job.final, objective, job.Config.PositionBounds, size))
}

// handleGetTrace handles GET /api/v1/jobs/:id/trace
func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, exists := s.jobManager.GetJob(jobID); !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if s.dataDir == "" {
		http.Error(w, "Tracing disabled", http.StatusNotFound)
		return
	}

	reader, err := store.NewTraceReader(s.dataDir, jobID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "No trace yet", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.TraceEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleObjectives handles GET /api/v1/objectives
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, pso.ObjectiveNames())
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
