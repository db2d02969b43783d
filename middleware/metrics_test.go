package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	mw "github.com/scum-dog/identikit-server-sub001/middleware"
)

// runMetrics executes the metrics middleware once against a manual
// reader and returns the collected metrics.
func runMetrics(t *testing.T, handlerErr error) metricdata.ResourceMetrics {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := mw.MetricsWithMeter(mp.Meter("test"))

	_ = m(context.Background(), newTestJob(), func(_ context.Context) error {
		return handlerErr
	})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// stringAttrs flattens a datapoint attribute set into a map.
func stringAttrs(attrs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Value.Type() == attribute.STRING {
			m[string(a.Key)] = a.Value.AsString()
		}
	}
	return m
}

func TestMetrics_DurationHistogram(t *testing.T) {
	rm := runMetrics(t, nil)

	metric := findMetric(rm, "pipeline.job.duration")
	if metric == nil {
		t.Fatal("pipeline.job.duration metric not found")
	}
	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("duration data is %T, want Histogram[float64]", metric.Data)
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no duration data points recorded")
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("duration count = %d, want 1", got)
	}
}

func TestMetrics_ExecutionStatus(t *testing.T) {
	tests := []struct {
		name       string
		handlerErr error
		wantStatus string
	}{
		{"success", nil, "ok"},
		{"failure", errors.New("store down"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := runMetrics(t, tt.handlerErr)

			metric := findMetric(rm, "pipeline.job.executions")
			if metric == nil {
				t.Fatal("pipeline.job.executions metric not found")
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("executions data is %T, want Sum[int64]", metric.Data)
			}
			if len(sum.DataPoints) == 0 {
				t.Fatal("no execution data points recorded")
			}
			dp := sum.DataPoints[0]
			if dp.Value != 1 {
				t.Errorf("executions value = %d, want 1", dp.Value)
			}

			attrs := stringAttrs(dp.Attributes.ToSlice())
			want := map[string]string{
				"action":   "update",
				"priority": "normal",
				"status":   tt.wantStatus,
			}
			for key, v := range want {
				if attrs[key] != v {
					t.Errorf("attribute %q = %q, want %q", key, attrs[key], v)
				}
			}
		})
	}
}

func TestMetrics_DefaultNoopSafe(t *testing.T) {
	// Metrics() without a global provider must still run the handler.
	m := mw.Metrics()

	called := false
	err := m(context.Background(), newTestJob(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
}
