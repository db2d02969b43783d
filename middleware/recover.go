package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/scum-dog/identikit-server-sub001/job"
)

// Recover converts a panic anywhere in the handler chain into an
// ordinary job error, so one bad payload cannot take down its worker.
// The panic value and stack are logged at Error.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (retErr error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			retErr = fmt.Errorf("panic in job %s: %v", j.ID, r)
			logger.Error("job handler panicked",
				slog.String("job_id", j.ID.String()),
				slog.String("action", string(j.Action)),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}()
		return next(ctx)
	}
}
