package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// StuckJobAge defines how long a job can sit in processing state
	// before the monitor considers it stuck and re-drives it.
	// Zero disables the monitor.
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs.
	// If zero, defaults to 5 minutes.
	StuckJobCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		QueueSize:             100,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// Reviver rebuilds an executable Task from a persisted job record. The
// runner uses it to requeue work found in the store after a restart.
type Reviver func(record JobRecord) (Task, error)

// Runner manages background job processing: a persistent hand-off queue
// with a worker pool, startup recovery, and a supervisory monitor that
// re-drives jobs stuck in processing. Together these give the hand-off
// at-least-once delivery; consumers are expected to be idempotent.
type Runner struct {
	store      JobStore
	jobChan    chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
	reviver    Reviver
}

// NewRunner creates a new Runner
func NewRunner(store JobStore, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.StuckJobCheckInterval == 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      store,
		jobChan:    make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "job_runner"),
	}
}

// SetReviver installs the function used to rebuild jobs during recovery.
// Without one, recovery and redrive log and skip persisted jobs.
func (r *Runner) SetReviver(reviver Reviver) {
	r.reviver = reviver
}

// Submit persists a job and adds it to the queue. The persisted row is
// what makes the hand-off recoverable: if the process dies before a
// worker picks the job up, recovery requeues it on the next start.
func (r *Runner) Submit(ctx context.Context, t Task) error {
	if err := r.store.SaveJob(ctx, t); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	select {
	case r.jobChan <- t:
		return nil
	default:
		return fmt.Errorf("job queue is full, try again later")
	}
}

// Start recovers unfinished jobs and launches the worker pool.
func (r *Runner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	if r.config.StuckJobAge > 0 {
		r.wg.Add(1)
		go r.stuckJobMonitor()
	}

	return nil
}

// Stop gracefully shuts down the runner.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.jobChan)
}

// Recover loads unfinished jobs from the store and requeues them: queued
// jobs as-is, processing jobs (interrupted by a crash) reset to queued.
func (r *Runner) Recover() error {
	ctx := context.Background()

	queued, err := r.store.ListQueuedJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list queued jobs: %w", err)
	}

	processing, err := r.store.ListProcessingJobs(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"queued_count", len(queued),
		"processing_count", len(processing))

	for _, record := range queued {
		r.requeueRecord(ctx, record, false)
	}

	for _, record := range processing {
		r.requeueRecord(ctx, record, true)
	}

	return nil
}

// requeueRecord revives a persisted job and puts it back on the queue,
// optionally resetting its stored status to queued first.
func (r *Runner) requeueRecord(ctx context.Context, record JobRecord, resetStatus bool) {
	if r.reviver == nil {
		r.logger.Warn("no reviver installed, skipping persisted job",
			"job_id", record.ID,
			"job_type", record.Type)
		return
	}

	job, err := r.reviver(record)
	if err != nil {
		r.logger.Error("failed to revive persisted job",
			"job_id", record.ID,
			"job_type", record.Type,
			"error", err)
		return
	}

	if resetStatus {
		if err := r.store.UpdateJobStatus(ctx, record.ID, StatusQueued, "reset after interruption"); err != nil {
			r.logger.Error("failed to reset job status",
				"job_id", record.ID,
				"error", err)
			return
		}
	}

	select {
	case r.jobChan <- job:
	default:
		r.logger.Error("failed to requeue job, queue is full",
			"job_id", record.ID,
			"job_type", record.Type)
	}
}

// worker processes jobs from the queue
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-r.jobChan:
			if !ok {
				r.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}

			r.executeJob(job, id)
		}
	}
}

// executeJob handles execution of a single job
func (r *Runner) executeJob(job Task, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"job_id", job.ID(),
		"job_type", job.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateJobStatus(ctx, job.ID(), StatusProcessing, ""); err != nil {
		logger.Error("failed to update job status to processing", "error", err)
		return
	}

	logger.Info("processing job")

	err := job.Execute(ctx)
	if err != nil {
		logger.Error("job execution failed", "error", err)
		if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), StatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update job status to failed", "error", updateErr)
		}
		return
	}

	logger.Info("job completed")
	if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), StatusCompleted, ""); updateErr != nil {
		logger.Error("failed to update job status to completed", "error", updateErr)
	}
}

// stuckJobMonitor periodically re-drives jobs that have sat in processing
// beyond the configured age. The job consumer's claim guard makes a
// re-driven job for an already-finished task a no-op.
func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			r.redriveStuckJobs()
		}
	}
}

// redriveStuckJobs performs one stuck-job sweep.
func (r *Runner) redriveStuckJobs() {
	ctx := context.Background()

	stuck, err := r.store.ListProcessingJobs(ctx, r.config.StuckJobAge)
	if err != nil {
		r.logger.Error("failed to check for stuck jobs", "error", err)
		return
	}

	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck jobs", "count", len(stuck))
	for _, record := range stuck {
		r.requeueRecord(ctx, record, true)
	}
}
