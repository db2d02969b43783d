// Package ext defines the extension system for the pipeline.
// Extensions are notified of job lifecycle events and can react to
// them — recording metrics, writing audit logs, emitting webhooks.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about:
//
//   - [JobEnqueued] — job was accepted into a lane
//   - [JobStarted] — worker began processing the job
//   - [JobCompleted] — the mutation was applied
//   - [JobFailed] — job failed terminally
//   - [JobRetrying] — job failed transiently and will re-enter its lane
//   - [JobDLQ] — job was moved to the dead letter queue
//   - [Shutdown] — the pipeline is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface. Hook errors are logged
// and never propagated; an extension cannot fail a job.
package ext

import (
	"context"
	"time"

	"github.com/scum-dog/identikit-server-sub001/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// JobEnqueued is called after a job is accepted into a lane.
type JobEnqueued interface {
	OnJobEnqueued(ctx context.Context, j *job.Job) error
}

// JobStarted is called when a worker begins processing a job.
type JobStarted interface {
	OnJobStarted(ctx context.Context, j *job.Job) error
}

// JobCompleted is called after a job's mutation is applied.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error
}

// JobFailed is called when a job fails terminally (validation error,
// eligibility rejection, or retries exhausted).
type JobFailed interface {
	OnJobFailed(ctx context.Context, j *job.Job, err error) error
}

// JobRetrying is called when a job fails transiently and is scheduled
// to re-enter its lane.
type JobRetrying interface {
	OnJobRetrying(ctx context.Context, j *job.Job, attempt int, delay time.Duration) error
}

// JobDLQ is called when a job is moved to the dead letter queue.
type JobDLQ interface {
	OnJobDLQ(ctx context.Context, j *job.Job, err error) error
}

// Shutdown is called during graceful shutdown, after all workers have
// exited their loops.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
