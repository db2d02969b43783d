package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/scum-dog/identikit-server-sub001/job"
)

// Logging logs each job's start and outcome with its identity attrs
// pre-bound, so every line for a job carries id, action and priority.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		l := logger.With(
			slog.String("job_id", j.ID.String()),
			slog.String("action", string(j.Action)),
			slog.String("priority", j.Priority.String()),
		)
		l.Info("job started")

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			l.Error("job failed",
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
			return err
		}
		l.Info("job completed", slog.Duration("elapsed", elapsed))
		return nil
	}
}
