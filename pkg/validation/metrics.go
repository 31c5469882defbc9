package validation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder for OpenTelemetry or NoopMetrics when disabled.
type MetricsRecorder interface {
	// RecordTransition records an emitted (non-duplicate) state transition.
	RecordTransition(ctx context.Context, unit string, status Status)

	// RecordRound records a round reaching a resolved status and the time
	// since its validators were invoked.
	RecordRound(ctx context.Context, unit string, status Status, duration time.Duration)

	// RecordStale records an outcome discarded because a newer request exists.
	RecordStale(ctx context.Context, unit string)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RecordTransition(context.Context, string, Status) {}

func (NoopMetrics) RecordRound(context.Context, string, Status, time.Duration) {}

func (NoopMetrics) RecordStale(context.Context, string) {}

type otelMetrics struct {
	transitions metric.Int64Counter
	rounds      metric.Int64Counter
	latency     metric.Float64Histogram
	stale       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("formkit")

	transitions, err := meter.Int64Counter("formkit.validation.transitions",
		metric.WithDescription("Number of emitted validation state transitions"),
	)
	if err != nil {
		return nil, err
	}

	rounds, err := meter.Int64Counter("formkit.validation.rounds",
		metric.WithDescription("Number of resolved validation rounds"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("formkit.validation.round.latency_ms",
		metric.WithDescription("Time from validator invocation to resolution in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stale, err := meter.Int64Counter("formkit.validation.stale",
		metric.WithDescription("Number of validator outcomes discarded as stale"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		transitions: transitions,
		rounds:      rounds,
		latency:     latency,
		stale:       stale,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. Configure the provider first with otel.SetMeterProvider.
// If instrument creation fails, a no-op recorder is returned.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordTransition(ctx context.Context, unit string, status Status) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("unit", unit),
		attribute.String("status", status.String()),
	))
}

func (m *otelMetrics) RecordRound(ctx context.Context, unit string, status Status, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("unit", unit),
		attribute.String("status", status.String()),
	)
	m.rounds.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (m *otelMetrics) RecordStale(ctx context.Context, unit string) {
	m.stale.Add(ctx, 1, metric.WithAttributes(attribute.String("unit", unit)))
}
