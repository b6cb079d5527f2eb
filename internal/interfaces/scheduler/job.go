package scheduler

import "context"

// Job represents a unit of work that can be executed by the worker pool.
// This interface allows for extensibility - different types of jobs can be
// implemented (e.g., accrual jobs, cleanup jobs, notification jobs).
type Job interface {
	// Execute runs the job with the given context.
	// Context should be respected for cancellation and timeouts.
	Execute(ctx context.Context) error

	// AccountID returns the account this job operates on.
	// This is useful for logging and tracking which account is being processed.
	AccountID() string

	// Description returns a human-readable description of the job.
	// Used for logging purposes.
	Description() string
}
