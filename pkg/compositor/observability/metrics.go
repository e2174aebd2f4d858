package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records compositor metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDelivery records one bus delivery: its kind, message type,
	// handler count, duration, and error status.
	RecordDelivery(ctx context.Context, kind, message string, handlers int, duration time.Duration, err error)

	// RecordDrain records one drain of an event source.
	RecordDrain(ctx context.Context, module string, err error)

	// RecordWaitError records a failed readiness wait.
	RecordWaitError(ctx context.Context, transient bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	deliveries metric.Int64Counter
	latency    metric.Float64Histogram
	errors     metric.Int64Counter
	drains     metric.Int64Counter
	waitErrors metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily creates the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("compositor")

	deliveries, err := meter.Int64Counter("compositor.bus.deliveries",
		metric.WithDescription("Number of bus deliveries"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("compositor.bus.latency_ms",
		metric.WithDescription("Bus delivery latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("compositor.bus.errors",
		metric.WithDescription("Number of failed bus deliveries"),
	)
	if err != nil {
		return nil, err
	}

	drains, err := meter.Int64Counter("compositor.runner.drains",
		metric.WithDescription("Number of event source drains"),
	)
	if err != nil {
		return nil, err
	}

	waitErrors, err := meter.Int64Counter("compositor.runner.wait_errors",
		metric.WithDescription("Number of failed readiness waits"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		deliveries: deliveries,
		latency:    latency,
		errors:     errs,
		drains:     drains,
		waitErrors: waitErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordDelivery(ctx context.Context, kind, message string, handlers int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("message", message),
		attribute.Bool("handled", handlers > 0),
	)

	m.deliveries.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if err != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordDrain(ctx context.Context, module string, err error) {
	m.drains.Add(ctx, 1, metric.WithAttributes(
		attribute.String("module", module),
		attribute.Bool("success", err == nil),
	))
}

func (m *otelMetrics) RecordWaitError(ctx context.Context, transient bool) {
	m.waitErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("transient", transient),
	))
}
