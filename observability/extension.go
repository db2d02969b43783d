// Package observability provides an OpenTelemetry-based metrics
// extension for the pipeline. The MetricsExtension implements lifecycle
// hooks to record system-wide counters for job enqueue, completion,
// failure, retry, and DLQ events.
//
// For per-execution tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/scum-dog/identikit-server-sub001/ext"
	"github.com/scum-dog/identikit-server-sub001/job"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/scum-dog/identikit-server-sub001/observability"

// Compile-time interface checks.
var (
	_ ext.Extension    = (*MetricsExtension)(nil)
	_ ext.JobEnqueued  = (*MetricsExtension)(nil)
	_ ext.JobCompleted = (*MetricsExtension)(nil)
	_ ext.JobFailed    = (*MetricsExtension)(nil)
	_ ext.JobRetrying  = (*MetricsExtension)(nil)
	_ ext.JobDLQ       = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle counters on the OTel
// meter API. Register it to track enqueue rates, completion counts,
// failure rates, retry counts, and DLQ entries. With no MeterProvider
// installed the instruments are noops.
type MetricsExtension struct {
	jobEnqueued  metric.Int64Counter
	jobCompleted metric.Int64Counter
	jobFailed    metric.Int64Counter
	jobRetried   metric.Int64Counter
	jobDLQ       metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. This variant allows injecting a specific
// MeterProvider for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		_ = err // noop fallback guaranteed by OTel API contract
		return c
	}
	return &MetricsExtension{
		jobEnqueued:  counter("pipeline.job.enqueued", "Jobs accepted into a lane"),
		jobCompleted: counter("pipeline.job.completed", "Jobs whose mutation was applied"),
		jobFailed:    counter("pipeline.job.failed", "Jobs that failed terminally"),
		jobRetried:   counter("pipeline.job.retried", "Transient failures scheduled for retry"),
		jobDLQ:       counter("pipeline.job.dlq", "Jobs moved to the dead letter queue"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobEnqueued implements ext.JobEnqueued.
func (m *MetricsExtension) OnJobEnqueued(ctx context.Context, _ *job.Job) error {
	m.jobEnqueued.Add(ctx, 1)
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, _ *job.Job, _ time.Duration) error {
	m.jobCompleted.Add(ctx, 1)
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, _ *job.Job, _ error) error {
	m.jobFailed.Add(ctx, 1)
	return nil
}

// OnJobRetrying implements ext.JobRetrying.
func (m *MetricsExtension) OnJobRetrying(ctx context.Context, _ *job.Job, _ int, _ time.Duration) error {
	m.jobRetried.Add(ctx, 1)
	return nil
}

// OnJobDLQ implements ext.JobDLQ.
func (m *MetricsExtension) OnJobDLQ(ctx context.Context, _ *job.Job, _ error) error {
	m.jobDLQ.Add(ctx, 1)
	return nil
}
