package server

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/psoswarm/internal/pso"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Upper limits on the size of a submitted job.
const (
	MaxJobParticles  = 10000
	MaxJobIterations = 1000000
)

// JobConfig is the JSON form of a run submitted over the API.
// Zero-valued fields take the defaults of pso.DefaultConfig.
type JobConfig struct {
	Particles      int        `json:"particles"`
	Iterations     int        `json:"iterations"`
	W              float64    `json:"w"`
	C1             float64    `json:"c1"`
	C2             float64    `json:"c2"`
	PositionBounds pso.Bounds `json:"positionBounds"`
	VelocityBounds pso.Bounds `json:"velocityBounds"`
	Threshold      *float64   `json:"threshold,omitempty"`
	Seed           int64      `json:"seed"`
	Reseed         string     `json:"reseed,omitempty"`
	Objective      string     `json:"objective,omitempty"`
}

// withDefaults fills zero-valued fields from pso.DefaultConfig.
func (c JobConfig) withDefaults() JobConfig {
	d := pso.DefaultConfig()
	if c.Particles == 0 {
		c.Particles = d.Particles
	}
	if c.Iterations == 0 {
		c.Iterations = d.Iterations
	}
	if c.W == 0 && c.C1 == 0 && c.C2 == 0 {
		c.W, c.C1, c.C2 = d.W, d.C1, d.C2
	}
	if c.PositionBounds == (pso.Bounds{}) {
		c.PositionBounds = d.PositionBounds
	}
	if c.VelocityBounds == (pso.Bounds{}) {
		c.VelocityBounds = d.VelocityBounds
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	return c
}

// RunConfig resolves names and validates the result.
func (c JobConfig) RunConfig() (pso.Config, error) {
	if c.Particles > MaxJobParticles {
		return pso.Config{}, fmt.Errorf("particles: at most %d allowed, got %d", MaxJobParticles, c.Particles)
	}
	if c.Iterations > MaxJobIterations {
		return pso.Config{}, fmt.Errorf("iterations: at most %d allowed, got %d", MaxJobIterations, c.Iterations)
	}
	objective, err := pso.LookupObjective(c.Objective)
	if err != nil {
		return pso.Config{}, err
	}
	reseed, err := pso.ParseReseedPolicy(c.Reseed)
	if err != nil {
		return pso.Config{}, err
	}

	cfg := pso.Config{
		Particles:      c.Particles,
		Iterations:     c.Iterations,
		Params:         pso.Params{W: c.W, C1: c.C1, C2: c.C2},
		PositionBounds: c.PositionBounds,
		VelocityBounds: c.VelocityBounds,
		Threshold:      c.Threshold,
		Seed:           c.Seed,
		Reseed:         reseed,
		Objective:      objective,
	}
	if err := cfg.Validate(); err != nil {
		return pso.Config{}, err
	}
	return cfg, nil
}

// Job represents an optimization job
type Job struct {
	ID         string          `json:"id"`
	State      JobState        `json:"state"`
	Config     JobConfig       `json:"config"`
	Status     pso.Status      `json:"status,omitempty"`
	Best       *pso.GlobalBest `json:"best,omitempty"`
	BestValue  float64         `json:"bestValue"`
	Iterations int             `json:"iterations"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    *time.Time      `json:"endTime,omitempty"`
	Error      string          `json:"error,omitempty"`

	// final is the swarm at the end of the run, used for plots
	final *pso.Snapshot
	seq   int
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	nextSeq     int
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob creates a new job with the given configuration
func (jm *JobManager) CreateJob(config JobConfig) Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
		seq:       jm.nextSeq,
	}
	jm.nextSeq++

	jm.jobs[job.ID] = job
	return *job
}

// GetJob returns a copy of the job with the given ID
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns copies of all jobs in creation order
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].seq < jobs[j].seq })
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			runningJobs = append(runningJobs, *job)
		}
	}
	return runningJobs
}
