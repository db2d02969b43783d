package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/scum-dog/identikit-server-sub001/job"
)

// meterName is the instrumentation scope name for pipeline metrics.
const meterName = "github.com/scum-dog/identikit-server-sub001"

// Metrics records two instruments per job execution, both attributed
// with action, priority and status ("ok" or "error"):
//
//   - pipeline.job.duration (Float64Histogram, seconds)
//   - pipeline.job.executions (Int64Counter)
//
// Without a global MeterProvider the instruments are noops.
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter is Metrics with an explicitly injected meter, for
// tests or multi-provider setups.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Instruments are created once here and shared; on creation error
	// the OTel API hands back noops, so both errors are ignored.
	duration, _ := meter.Float64Histogram( //nolint:errcheck
		"pipeline.job.duration",
		metric.WithDescription("Duration of job execution in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter( //nolint:errcheck
		"pipeline.job.executions",
		metric.WithDescription("Total number of job executions"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) error {
		start := time.Now()
		err := next(ctx)

		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("action", string(j.Action)),
			attribute.String("priority", j.Priority.String()),
			attribute.String("status", status),
		)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
