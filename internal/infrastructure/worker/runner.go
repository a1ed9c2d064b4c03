package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printnest/backend/internal/infrastructure/logger"
)

// JobExecutor runs a single gangsheet job to completion. The executor owns
// all status persistence: the runner never touches the job record itself.
type JobExecutor interface {
	Execute(ctx context.Context, jobID uuid.UUID) error
}

// PendingLister reports job ids still waiting for a worker. Used on startup
// to requeue work left behind by a previous process.
type PendingLister interface {
	FindPendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// Config holds runner configuration
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{
		Workers:    2,
		QueueSize:  100,
		JobTimeout: 15 * time.Minute,
	}
}

// Runner owns the worker pool that drains the gangsheet job queue.
type Runner struct {
	config   Config
	executor JobExecutor
	pending  PendingLister
	logger   *zap.Logger

	jobs      chan uuid.UUID
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// active maps a running job to its cancel func so CancelJob can
	// interrupt mid-render.
	active map[uuid.UUID]context.CancelFunc
}

// NewRunner creates a new runner instance
func NewRunner(config Config, executor JobExecutor, pending PendingLister, logger *zap.Logger) *Runner {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	return &Runner{
		config:   config,
		executor: executor,
		pending:  pending,
		logger:   logger,
		jobs:     make(chan uuid.UUID, config.QueueSize),
		active:   make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start starts the worker pool and requeues jobs that were still pending
// when the previous process stopped.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}

	r.logger.Info("Job runner started",
		zap.Int("workers", r.config.Workers),
		zap.Duration("job_timeout", r.config.JobTimeout),
	)

	if r.pending != nil {
		if err := r.requeuePending(ctx); err != nil {
			r.logger.Warn("Failed to requeue pending jobs", zap.Error(err))
		}
	}

	return nil
}

// Stop gracefully stops the runner
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	close(r.jobs)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Job runner stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Job runner stop timed out")
		return ctx.Err()
	}
}

// Enqueue submits a job id for execution
func (r *Runner) Enqueue(jobID uuid.UUID) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return ErrRunnerNotRunning
	}
	r.mu.Unlock()

	select {
	case r.jobs <- jobID:
		r.logger.Debug("Job enqueued", zap.String("job_id", jobID.String()))
		return nil
	default:
		return ErrQueueFull
	}
}

// CancelJob interrupts a job that is currently executing. Returns false if
// the job is not running on any worker.
func (r *Runner) CancelJob(jobID uuid.UUID) bool {
	r.mu.Lock()
	cancel, ok := r.active[jobID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// requeuePending pushes leftover pending job ids onto the queue
func (r *Runner) requeuePending(ctx context.Context) error {
	ids, err := r.pending.FindPendingIDs(ctx, r.config.QueueSize)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.Enqueue(id); err != nil {
			r.logger.Warn("Dropped leftover pending job",
				zap.String("job_id", id.String()),
				zap.Error(err),
			)
		}
	}
	if len(ids) > 0 {
		r.logger.Info("Requeued leftover pending jobs", zap.Int("count", len(ids)))
	}
	return nil
}

// worker processes job ids from the queue
func (r *Runner) worker(ctx context.Context, workerID int) {
	defer r.wg.Done()

	r.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case jobID, ok := <-r.jobs:
			if !ok {
				r.logger.Debug("Job channel closed", zap.Int("worker_id", workerID))
				return
			}
			r.processJob(ctx, jobID, workerID)
		}
	}
}

// processJob executes a single job under the configured timeout. The job
// context carries the job id so every log line downstream is correlated.
func (r *Runner) processJob(ctx context.Context, jobID uuid.UUID, workerID int) {
	jobCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	defer cancel()

	jobCtx, jobLog := logger.WithJobID(jobCtx, r.logger, jobID.String())

	r.mu.Lock()
	r.active[jobID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.active, jobID)
		r.mu.Unlock()
	}()

	start := time.Now()
	jobLog.Info("Processing job", zap.Int("worker_id", workerID))

	if err := r.executor.Execute(jobCtx, jobID); err != nil {
		jobLog.Error("Job failed",
			zap.Int("worker_id", workerID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	jobLog.Info("Job completed",
		zap.Int("worker_id", workerID),
		zap.Duration("elapsed", time.Since(start)),
	)
}
