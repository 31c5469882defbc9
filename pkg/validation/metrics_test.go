package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dmitrymomot/formkit/pkg/eventloop"
)

func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}
	return reader, cleanup
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor adds up counter points whose attrs include key=value.
func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")

	var total int64
	for _, dp := range sum.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if string(attr.Key) == key && attr.Value.AsString() == value {
				total += dp.Value
			}
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestOtelMetrics(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("transitions", func(t *testing.T) {
		m.RecordTransition(ctx, "email", StatusInvalid)
		m.RecordTransition(ctx, "email", StatusValid)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "formkit.validation.transitions")
		assert.Equal(t, int64(2), sumFor(t, metric, "unit", "email"))
		assert.Equal(t, int64(1), sumFor(t, metric, "status", "invalid"))
	})

	t.Run("rounds and latency", func(t *testing.T) {
		m.RecordRound(ctx, "name", StatusValid, 25*time.Millisecond)

		rm := collectMetrics(t, reader)
		assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "formkit.validation.rounds"), "unit", "name"))

		latency := findMetric(rm, "formkit.validation.round.latency_ms")
		require.NotNil(t, latency)
		hist, ok := latency.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
		assert.InDelta(t, 25.0, hist.DataPoints[0].Sum, 0.001)
	})

	t.Run("stale", func(t *testing.T) {
		m.RecordStale(ctx, "name")

		rm := collectMetrics(t, reader)
		assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "formkit.validation.stale"), "unit", "name"))
	})
}

func TestUnitRecordsMetrics(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	sched := eventloop.NewManual()
	var resolvers []ResolveFunc
	unit, err := New(func(Status, []any) {}, []Dependency[string]{
		Async(func(_ string, resolve ResolveFunc, _ RejectFunc) {
			resolvers = append(resolvers, resolve)
		}),
	}, WithScheduler(sched), WithMetrics(m), WithName("username"))
	require.NoError(t, err)

	require.NoError(t, unit.Evaluate("a", nil))
	sched.Flush()
	require.NoError(t, unit.Evaluate("b", nil))
	sched.Flush()

	sched.Advance(40 * time.Millisecond)
	resolvers[0](true)
	resolvers[1](false, "taken")
	sched.Flush()

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "formkit.validation.stale"), "unit", "username"))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "formkit.validation.rounds"), "status", "invalid"))
	assert.Equal(t, int64(2), sumFor(t, findMetric(rm, "formkit.validation.transitions"), "unit", "username"))

	latency := findMetric(rm, "formkit.validation.round.latency_ms")
	require.NotNil(t, latency)
	hist := latency.Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 40.0, hist.DataPoints[0].Sum, 0.001)
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordTransition(context.Background(), "x", StatusValid)
		m.RecordRound(context.Background(), "x", StatusValid, time.Second)
		m.RecordStale(context.Background(), "x")
	})
}
