package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/psoswarm/internal/pso"
	"github.com/cwbudde/psoswarm/internal/store"
)

// runJob executes an optimization job in the background.
// If dataDir is not empty, the job's progress is traced to
// <dataDir>/runs/<jobID>/trace.jsonl.
func runJob(ctx context.Context, jm *JobManager, dataDir string, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Every exit below broadcasts a terminal event first; closing the
	// subscriptions afterwards ends open streams and drops the cached event.
	defer jm.broadcaster.CleanupJob(jobID)

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	cfg, err := job.Config.RunConfig()
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "particles", cfg.Particles, "iterations", cfg.Iterations)

	// Check for cancellation before starting
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	opts := []pso.Option{
		pso.WithContext(ctx),
		pso.WithReporter(jobReporter{jm: jm, jobID: jobID}),
		pso.WithLogger(slog.Default().With("job_id", jobID)),
	}

	if dataDir != "" {
		writer, err := store.NewTraceWriter(dataDir, jobID, false)
		if err != nil {
			slog.Warn("Tracing disabled for job", "job_id", jobID, "error", err)
		} else {
			defer func() {
				if err := writer.Close(); err != nil {
					slog.Warn("Failed to close trace", "job_id", jobID, "error", err)
				}
			}()
			opts = append(opts, pso.WithReporter(store.NewTraceReporter(writer)))
		}
	}

	start := time.Now()
	progressDone := make(chan struct{})
	monitorExited := make(chan struct{})
	go func() {
		defer close(monitorExited)
		monitorProgress(ctx, jm, jobID, start, progressDone)
	}()

	result, err := pso.Run(cfg, opts...)
	close(progressDone)
	<-monitorExited
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			markJobCancelled(jm, jobID)
			return ctxErr
		}
		markJobFailed(jm, jobID, err)
		return err
	}

	endTime := time.Now()
	best := result.Best
	final := result.Final
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Status = result.Status
		j.Best = &best
		j.BestValue = best.Value
		j.Iterations = result.Iterations
		j.final = &final
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"status", result.Status,
		"global_best", best.Value,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:      jobID,
		State:      StateCompleted,
		Iterations: result.Iterations,
		BestValue:  best.Value,
		Rate:       rate(result.Iterations, elapsed),
		Timestamp:  time.Now(),
	})

	return nil
}

// jobReporter mirrors per-iteration progress into the job record.
type jobReporter struct {
	jm    *JobManager
	jobID string
}

func (r jobReporter) Report(iteration int, best float64) {
	r.jm.UpdateJob(r.jobID, func(j *Job) {
		j.Iterations = iteration + 1
		j.BestValue = best
	})
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}

			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:      jobID,
				State:      job.State,
				Iterations: job.Iterations,
				BestValue:  job.BestValue,
				Rate:       rate(job.Iterations, time.Since(startTime)),
				Timestamp:  time.Now(),
			})
		}
	}
}

func rate(iterations int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(iterations) / elapsed.Seconds()
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateFailed, Timestamp: endTime})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateCancelled, Timestamp: endTime})
	slog.Info("Job cancelled", "job_id", jobID)
}
