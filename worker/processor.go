// Package worker executes jobs. A Processor applies each job's
// mutation against the record store through middleware; a Pool manages
// the concurrent worker goroutines draining the priority lanes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scum-dog/identikit-server-sub001/backoff"
	"github.com/scum-dog/identikit-server-sub001/dlq"
	"github.com/scum-dog/identikit-server-sub001/ext"
	"github.com/scum-dog/identikit-server-sub001/job"
	"github.com/scum-dog/identikit-server-sub001/middleware"
	"github.com/scum-dog/identikit-server-sub001/record"
)

// Requeuer re-enters a job into its priority lane. Satisfied by
// queue.Queue; retries go back through it after the backoff delay.
type Requeuer interface {
	Enqueue(j *job.Job)
}

// Processor runs a single job through middleware and the record store,
// then handles retry logic, DLQ push, journal updates, and lifecycle
// events.
//
// Failures are classified: validation errors and eligibility rejections
// (missing record, locked record, owner mismatch) are terminal on the
// first attempt since retrying cannot change the outcome. Everything
// else is treated as a transient store error and retried with backoff
// until MaxRetries is exhausted, after which the job lands in the DLQ.
type Processor struct {
	records    record.Store
	journal    job.Store
	extensions *ext.Registry
	dlqService *dlq.Service
	backoff    backoff.Strategy
	requeue    Requeuer
	mw         middleware.Middleware
	logger     *slog.Logger
}

// NewProcessor creates a Processor with the given dependencies.
// The journal, dlqService, and requeue may be nil; the corresponding
// behavior (status journaling, dead-lettering, retry re-entry) is then
// skipped.
func NewProcessor(
	records record.Store,
	journal job.Store,
	extensions *ext.Registry,
	dlqService *dlq.Service,
	bo backoff.Strategy,
	requeue Requeuer,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Processor {
	return &Processor{
		records:    records,
		journal:    journal,
		extensions: extensions,
		dlqService: dlqService,
		backoff:    bo,
		requeue:    requeue,
		mw:         middleware.Chain(mws...),
		logger:     logger,
	}
}

// Process runs a job to a terminal or retrying state.
// On success: marks completed, emits JobCompleted.
// On a terminal failure (validation, eligibility): marks failed, emits JobFailed.
// On a transient failure with retries remaining: marks retrying, emits
// JobRetrying, and re-enqueues the job after the backoff delay.
// On a transient failure with retries exhausted: marks failed, pushes to
// DLQ, emits JobFailed + JobDLQ.
func (p *Processor) Process(ctx context.Context, j *job.Job) error {
	now := time.Now().UTC()
	j.State = job.StateProcessing
	j.StartedAt = &now
	j.UpdatedAt = now
	p.journalUpdate(ctx, j)

	p.extensions.EmitJobStarted(ctx, j)

	start := time.Now()

	// The terminal handler validates the job and applies its mutation.
	terminal := func(ctx context.Context) error {
		return p.apply(ctx, j)
	}

	err := p.mw(ctx, j, terminal)
	elapsed := time.Since(start)

	j.UpdatedAt = time.Now().UTC()

	if err != nil {
		return p.handleFailure(ctx, j, err)
	}

	return p.handleSuccess(ctx, j, elapsed)
}

// apply dispatches the job's action to the record store. Validation
// runs first so a malformed job never reaches the store.
func (p *Processor) apply(ctx context.Context, j *job.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}

	switch j.Action {
	case job.ActionCreate:
		_, err := p.records.Create(ctx, j.OwnerID, j.Payload)
		return err
	case job.ActionUpdate:
		_, err := p.records.UpdateIfEditable(ctx, j.TargetID, j.OwnerID, j.Payload)
		return err
	case job.ActionDelete:
		return p.records.SoftDelete(ctx, j.TargetID, j.ActingAdminID())
	default:
		// Validate rejects unknown actions; unreachable.
		return fmt.Errorf("%w: %q", job.ErrUnknownAction, j.Action)
	}
}

// terminalFailure reports whether err can never succeed on retry.
func terminalFailure(err error) bool {
	return errors.Is(err, job.ErrValidation) ||
		errors.Is(err, record.ErrNotFound) ||
		errors.Is(err, record.ErrEditNotPermitted)
}

func (p *Processor) handleSuccess(ctx context.Context, j *job.Job, elapsed time.Duration) error {
	now := time.Now().UTC()
	j.State = job.StateCompleted
	j.CompletedAt = &now
	p.journalUpdate(ctx, j)

	p.extensions.EmitJobCompleted(ctx, j, elapsed)
	return nil
}

func (p *Processor) handleFailure(ctx context.Context, j *job.Job, jobErr error) error {
	j.LastError = jobErr.Error()

	if terminalFailure(jobErr) {
		return p.reject(ctx, j, jobErr)
	}

	j.RetryCount++
	if j.RetryCount <= j.MaxRetries && p.requeue != nil {
		return p.scheduleRetry(ctx, j, jobErr)
	}

	return p.sendToDLQ(ctx, j, jobErr)
}

// reject marks a job failed without consuming a retry. Validation and
// eligibility failures are expected business outcomes, not deferrals.
func (p *Processor) reject(ctx context.Context, j *job.Job, jobErr error) error {
	j.State = job.StateFailed
	p.journalUpdate(ctx, j)

	p.extensions.EmitJobFailed(ctx, j, jobErr)

	p.logger.Info("job rejected",
		slog.String("job_id", j.ID.String()),
		slog.String("action", string(j.Action)),
		slog.String("reason", jobErr.Error()),
	)

	return jobErr
}

// scheduleRetry marks the job retrying and re-enters it into its lane
// after the backoff delay.
func (p *Processor) scheduleRetry(ctx context.Context, j *job.Job, jobErr error) error {
	delay := p.backoff.Delay(j.RetryCount)
	j.State = job.StateRetrying
	p.journalUpdate(ctx, j)

	p.extensions.EmitJobRetrying(ctx, j, j.RetryCount, delay)

	p.logger.Info("job scheduled for retry",
		slog.String("job_id", j.ID.String()),
		slog.String("action", string(j.Action)),
		slog.Int("attempt", j.RetryCount),
		slog.Int("max_retries", j.MaxRetries),
		slog.Duration("delay", delay),
	)

	requeue := p.requeue
	time.AfterFunc(delay, func() {
		j.State = job.StatePending
		j.UpdatedAt = time.Now().UTC()
		requeue.Enqueue(j)
	})

	return fmt.Errorf("job %s retry %d/%d: %w", j.ID, j.RetryCount, j.MaxRetries, jobErr)
}

// sendToDLQ marks the job as failed, pushes it to the DLQ, and emits events.
func (p *Processor) sendToDLQ(ctx context.Context, j *job.Job, jobErr error) error {
	j.State = job.StateFailed
	p.journalUpdate(ctx, j)

	if p.dlqService != nil {
		if dlqErr := p.dlqService.Push(ctx, j, jobErr); dlqErr != nil {
			p.logger.Error("failed to push job to DLQ",
				slog.String("job_id", j.ID.String()),
				slog.String("error", dlqErr.Error()),
			)
		}
	}

	p.extensions.EmitJobFailed(ctx, j, jobErr)
	p.extensions.EmitJobDLQ(ctx, j, jobErr)

	p.logger.Warn("job moved to DLQ after exhausting retries",
		slog.String("job_id", j.ID.String()),
		slog.String("action", string(j.Action)),
		slog.Int("retry_count", j.RetryCount),
		slog.String("error", jobErr.Error()),
	)

	return jobErr
}

// journalUpdate records the job's current state in the status journal.
// The journal is observational; failures are logged, never propagated.
func (p *Processor) journalUpdate(ctx context.Context, j *job.Job) {
	if p.journal == nil {
		return
	}
	if err := p.journal.SaveJob(ctx, j); err != nil {
		p.logger.Warn("journal update failed",
			slog.String("job_id", j.ID.String()),
			slog.String("state", string(j.State)),
			slog.String("error", err.Error()),
		)
	}
}
