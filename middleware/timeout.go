package middleware

import (
	"context"
	"log/slog"

	"github.com/scum-dog/identikit-server-sub001/job"
)

// Timeout bounds each job's store call with the job's Timeout. A hung
// backend then surfaces as context.DeadlineExceeded instead of pinning
// a worker forever. Jobs with a zero Timeout run unbounded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		if j.Timeout <= 0 {
			return next(ctx)
		}
		logger.Debug("job deadline set",
			slog.String("job_id", j.ID.String()),
			slog.Duration("timeout", j.Timeout),
		)
		ctx, cancel := context.WithTimeout(ctx, j.Timeout)
		defer cancel()
		return next(ctx)
	}
}
