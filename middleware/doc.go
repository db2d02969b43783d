// Package middleware provides composable wrappers around the store
// call a worker makes for each job.
//
// A [Middleware] wraps a [Handler]; [Chain] composes several into one,
// outermost first.
//
//	// recover → logging → handler
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// Built-ins:
//
//   - [Recover] — converts handler panics to errors
//   - [Logging] — logs job id, action, priority and outcome
//   - [Timeout] — bounds the store call with the job's Timeout
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-job duration and outcome counters
//
// Custom middleware follows the same shape:
//
//	func Audit() middleware.Middleware {
//	    return func(ctx context.Context, j *job.Job, next middleware.Handler) error {
//	        // before
//	        err := next(ctx)
//	        // after
//	        return err
//	    }
//	}
package middleware
