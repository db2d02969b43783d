package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/scum-dog/identikit-server-sub001/job"
)

// tracerName is the instrumentation scope name for pipeline tracing.
const tracerName = "github.com/scum-dog/identikit-server-sub001"

// Tracing wraps each job execution in a "pipeline.job.execute" span
// carrying the job's id, action, priority and retry count. Without a
// global TracerProvider the noop tracer makes this a pass-through.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer is Tracing with an explicitly injected tracer, for
// tests or multi-provider setups.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "pipeline.job.execute",
			trace.WithAttributes(
				attribute.String("pipeline.job.id", j.ID.String()),
				attribute.String("pipeline.job.action", string(j.Action)),
				attribute.String("pipeline.job.priority", j.Priority.String()),
				attribute.Int("pipeline.retry_count", j.RetryCount),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}
}
