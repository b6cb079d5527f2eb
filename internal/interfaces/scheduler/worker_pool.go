package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	jobTracer          = otel.Tracer("corebank/scheduler")
	jobMeter           = otel.Meter("corebank/scheduler")
	jobDuration, _     = jobMeter.Float64Histogram("scheduler.job.duration", metric.WithDescription("Job execution duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("scheduler.job.total", metric.WithDescription("Total jobs executed by status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("scheduler.job.queue_dropped", metric.WithDescription("Jobs dropped due to full queue"))
)

// WorkerPool manages a pool of concurrent workers that process jobs.
type WorkerPool struct {
	workerCount int
	jobDelay    time.Duration
	jobs        chan Job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewWorkerPool creates a new worker pool with the specified configuration.
// workerCount: number of concurrent workers (goroutines)
// jobDelay: delay between processing jobs (for rate limiting)
// queueSize: buffer size for the job channel
func NewWorkerPool(workerCount int, jobDelay time.Duration, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount: workerCount,
		jobDelay:    jobDelay,
		jobs:        make(chan Job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
// Each worker runs in its own goroutine and processes jobs from the channel.
func (wp *WorkerPool) Start() {
	logrus.WithField("workers", wp.workerCount).Info("Starting worker pool")

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker is the main loop for each worker goroutine.
// It continuously processes jobs from the channel until shutdown.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	logrus.WithField("worker", id).Debug("Worker started")

	for {
		select {
		case <-wp.ctx.Done():
			// Context cancelled - graceful shutdown
			logrus.WithField("worker", id).Debug("Worker shutting down")
			return

		case job, ok := <-wp.jobs:
			if !ok {
				// Channel closed - no more jobs
				logrus.WithField("worker", id).Debug("Worker: job channel closed")
				return
			}

			wp.processJob(id, job)

			// Apply delay between jobs (if configured)
			if wp.jobDelay > 0 {
				select {
				case <-time.After(wp.jobDelay):
				case <-wp.ctx.Done():
					logrus.WithField("worker", id).Debug("Worker shutting down during delay")
					return
				}
			}
		}
	}
}

// processJob executes a single job with error handling, logging, and telemetry.
func (wp *WorkerPool) processJob(workerID int, job Job) {
	logrus.WithFields(logrus.Fields{
		"worker":     workerID,
		"job":        job.Description(),
		"account_id": job.AccountID(),
	}).Info("Processing job")

	// Create a timeout context for the job execution
	ctx, cancel := context.WithTimeout(wp.ctx, 120*time.Second)
	defer cancel()

	ctx, span := jobTracer.Start(ctx, "job.execute",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.description", job.Description()),
			attribute.String("job.account_id", job.AccountID()),
		),
	)
	defer span.End()

	start := time.Now()

	if err := job.Execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		jobDuration.Record(ctx, time.Since(start).Seconds())
		logrus.WithFields(logrus.Fields{
			"worker":     workerID,
			"job":        job.Description(),
			"account_id": job.AccountID(),
		}).WithError(err).Error("Job failed")
		return
	}

	jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	jobDuration.Record(ctx, time.Since(start).Seconds())
	logrus.WithFields(logrus.Fields{
		"worker":     workerID,
		"job":        job.Description(),
		"account_id": job.AccountID(),
	}).Info("Job completed")
}

// Submit adds a job to the queue for processing.
// Returns an error if the context is cancelled or the queue is full
// (the job is dropped). Non-blocking.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.jobs <- job:
		return nil
	default:
		// Queue is full - could also block here, but we return error for visibility
		jobQueueDropped.Add(context.Background(), 1)
		logrus.WithField("account_id", job.AccountID()).Warn("Job queue full, dropping job")
		return fmt.Errorf("job queue full, dropping job for account %s", job.AccountID())
	}
}

// SubmitBatch adds multiple jobs to the queue.
// Useful for batch processing scenarios (e.g., the monthly accrual sweep).
func (wp *WorkerPool) SubmitBatch(jobs []Job) {
	submitted := 0
	for _, job := range jobs {
		if err := wp.Submit(job); err != nil {
			logrus.WithField("account_id", job.AccountID()).WithError(err).Warn("Failed to submit job")
			continue
		}
		submitted++
	}
	logrus.WithFields(logrus.Fields{
		"submitted": submitted,
		"total":     len(jobs),
	}).Info("Submitted jobs to worker pool")
}

// Shutdown gracefully stops the worker pool.
// It closes the job channel, waits for workers to finish, then cancels the context.
func (wp *WorkerPool) Shutdown() {
	logrus.Info("Worker pool: Initiating graceful shutdown")

	close(wp.jobs)

	wp.wg.Wait()

	wp.cancel()

	logrus.Info("Worker pool: Shutdown complete")
}

// ShutdownWithTimeout shuts down the worker pool with a timeout.
// If workers don't finish within the timeout, it forces shutdown by cancelling context.
func (wp *WorkerPool) ShutdownWithTimeout(timeout time.Duration) {
	logrus.WithField("timeout", timeout.String()).Info("Worker pool: Initiating graceful shutdown")

	close(wp.jobs)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("Worker pool: All workers finished gracefully")
	case <-time.After(timeout):
		logrus.Warn("Worker pool: Timeout reached, forcing shutdown")
		wp.cancel()
	}

	logrus.Info("Worker pool: Shutdown complete")
}
