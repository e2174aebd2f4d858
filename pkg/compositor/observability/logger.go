// Package observability provides structured logging, metrics, and tracing
// for the compositor.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds the host instance ID to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, host.ID())
//	enriched.Info("ready") // includes host_id
func EnrichLogger(logger *slog.Logger, hostID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("host_id", hostID))
}

// LogHostInitialize logs the start of host initialization.
func LogHostInitialize(logger *slog.Logger, hostID string, modules int) {
	if logger == nil {
		return
	}
	logger.Info("compositor initializing",
		slog.String("host_id", hostID),
		slog.Int("modules", modules),
	)
}

// LogHostReady logs successful host initialization.
func LogHostReady(logger *slog.Logger, hostID string, durationMs float64, bindings int) {
	if logger == nil {
		return
	}
	logger.Info("compositor ready",
		slog.String("host_id", hostID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("bindings", bindings),
	)
}

// LogModuleInitialized logs a module that finished initializing.
func LogModuleInitialized(logger *slog.Logger, module string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("module initialized",
		slog.String("module", module),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogModuleError logs a module lifecycle failure.
// op is the lifecycle step: "initialize", "cleanup" or "drain".
func LogModuleError(logger *slog.Logger, module, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("module failed",
		slog.String("module", module),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogCleanup logs host teardown. err is the joined cleanup error, if any.
func LogCleanup(logger *slog.Logger, hostID string, cleaned int, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("compositor cleanup finished with errors",
			slog.String("host_id", hostID),
			slog.Int("modules", cleaned),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Info("compositor cleaned up",
		slog.String("host_id", hostID),
		slog.Int("modules", cleaned),
	)
}

// LogRunnerStart logs entry into the run loop.
func LogRunnerStart(logger *slog.Logger, sources int, pollTimeout time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("run loop starting",
		slog.Int("sources", sources),
		slog.Duration("poll_timeout", pollTimeout),
	)
}

// LogRunnerStop logs exit from the run loop and why.
func LogRunnerStop(logger *slog.Logger, reason string, drains int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("run loop stopped",
		slog.String("reason", reason),
		slog.Int("drains", drains),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogWaitError logs a failed readiness wait.
// Transient errors are retried and logged at debug level.
func LogWaitError(logger *slog.Logger, err error, transient bool) {
	if logger == nil {
		return
	}
	if transient {
		logger.Debug("wait interrupted, retrying",
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Error("wait failed",
		slog.String("error", err.Error()),
	)
}

// LogDelivery logs a single bus delivery at debug level, or warn on error.
func LogDelivery(logger *slog.Logger, kind, message string, handlers int, durationMs float64, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("delivery failed",
			slog.String("kind", kind),
			slog.String("message", message),
			slog.Int("handlers", handlers),
			slog.Float64("duration_ms", durationMs),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("delivered",
		slog.String("kind", kind),
		slog.String("message", message),
		slog.Int("handlers", handlers),
		slog.Float64("duration_ms", durationMs),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
