package middleware

import (
	"context"

	"github.com/scum-dog/identikit-server-sub001/job"
)

// Handler is the terminal function that applies the job's mutation.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting behavior. It sees the
// job being processed and must call next to continue the chain, unless
// it short-circuits with an error.
type Middleware func(ctx context.Context, j *job.Job, next Handler) error

// Chain composes middleware into one. The first middleware in the list
// is the outermost wrapper, so Chain(recover, logging, timeout) runs
// recover → logging → timeout → handler.
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		// Wrap from the innermost outward.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw, inner := mws[i], h
			h = func(ctx context.Context) error {
				return mw(ctx, j, inner)
			}
		}
		return h(ctx)
	}
}
