package compositor

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/compositor/pkg/compositor/observability"
)

// hostConfig holds host construction settings.
type hostConfig struct {
	id             string
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	metricsEnabled bool
	spans          observability.SpanManager
	tracingEnabled bool
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// observed reports whether any observability feature is on.
func (c *hostConfig) observed() bool {
	return c.logger != nil || c.metricsEnabled || c.tracingEnabled
}

// Option configures a Host.
type Option func(*hostConfig)

// WithID sets the host instance ID. Default: a random UUID.
func WithID(id string) Option {
	return func(c *hostConfig) {
		if id != "" {
			c.id = id
		}
	}
}

// WithLogger enables structured logging of lifecycle, deliveries and the
// run loop. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *hostConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
//
// Example:
//
//	otel.SetMeterProvider(provider)
//	host := compositor.New(modules, compositor.WithMetrics(true))
func WithMetrics(enabled bool) Option {
	return func(c *hostConfig) {
		c.metricsEnabled = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry tracing using the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *hostConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// runnerConfig holds runner construction settings.
type runnerConfig struct {
	pollTimeout time.Duration
	poller      Poller
}

func defaultRunnerConfig() runnerConfig {
	return runnerConfig{
		pollTimeout: 100 * time.Millisecond,
	}
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerConfig)

// WithPollTimeout bounds each readiness wait.
// Default: 100ms
//
// The timeout is what lets the exit check run with no I/O activity.
func WithPollTimeout(d time.Duration) RunnerOption {
	return func(c *runnerConfig) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}

// WithPoller replaces the OS readiness primitive.
func WithPoller(p Poller) RunnerOption {
	return func(c *runnerConfig) {
		if p != nil {
			c.poller = p
		}
	}
}

// runConfig holds settings for a single Run.
type runConfig struct {
	exitCheck func() bool
}

// RunOption configures a single Run.
type RunOption func(*runConfig)

// WithExitCheck installs a predicate checked before every wait.
// Run returns nil as soon as it reports true.
func WithExitCheck(check func() bool) RunOption {
	return func(c *runConfig) {
		c.exitCheck = check
	}
}
