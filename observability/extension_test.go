package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
	"github.com/scum-dog/identikit-server-sub001/observability"
)

func setupExtension(t *testing.T) (*observability.MetricsExtension, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return observability.NewMetricsExtensionWithMeter(mp.Meter("test")), reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: expected Sum[int64]", name)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetricsExtension_CountsLifecycleEvents(t *testing.T) {
	m, reader := setupExtension(t)
	ctx := context.Background()
	j := &job.Job{ID: id.NewJobID(), Action: job.ActionCreate}

	if err := m.OnJobEnqueued(ctx, j); err != nil {
		t.Fatalf("OnJobEnqueued: %v", err)
	}
	if err := m.OnJobCompleted(ctx, j, time.Millisecond); err != nil {
		t.Fatalf("OnJobCompleted: %v", err)
	}
	if err := m.OnJobFailed(ctx, j, errors.New("boom")); err != nil {
		t.Fatalf("OnJobFailed: %v", err)
	}
	if err := m.OnJobRetrying(ctx, j, 1, time.Second); err != nil {
		t.Fatalf("OnJobRetrying: %v", err)
	}
	if err := m.OnJobDLQ(ctx, j, errors.New("boom")); err != nil {
		t.Fatalf("OnJobDLQ: %v", err)
	}

	checks := map[string]int64{
		"pipeline.job.enqueued":  1,
		"pipeline.job.completed": 1,
		"pipeline.job.failed":    1,
		"pipeline.job.retried":   1,
		"pipeline.job.dlq":       1,
	}
	for name, want := range checks {
		if got := counterValue(t, reader, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestMetricsExtension_NoopSafeWithoutProvider(t *testing.T) {
	m := observability.NewMetricsExtension()
	j := &job.Job{ID: id.NewJobID(), Action: job.ActionCreate}

	if err := m.OnJobEnqueued(context.Background(), j); err != nil {
		t.Fatalf("OnJobEnqueued: %v", err)
	}
}
