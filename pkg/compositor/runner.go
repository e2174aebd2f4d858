package compositor

import (
	"context"
	"log/slog"
	"sync/atomic"

	cerrors "github.com/randalmurphal/compositor/pkg/compositor/errors"
	"github.com/randalmurphal/compositor/pkg/compositor/module"
	"github.com/randalmurphal/compositor/pkg/compositor/observability"
	"go.opentelemetry.io/otel/trace"
)

// RunState is the runner state. Stopped is terminal.
type RunState int32

const (
	// RunnerIdle is the state after NewRunner.
	RunnerIdle RunState = iota
	// RunnerRunning is the state while Run loops.
	RunnerRunning
	// RunnerStopped is the state after the loop exits or Stop is called.
	RunnerStopped
)

// String returns the state name.
func (s RunState) String() string {
	switch s {
	case RunnerIdle:
		return "idle"
	case RunnerRunning:
		return "running"
	case RunnerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// source pairs a watched descriptor with its owning module.
type source struct {
	fd     int
	name   string
	module module.EventSource
}

// Runner multiplexes the event sources of a host's modules.
//
// The (descriptor, module) pairs are collected once by NewRunner; modules
// that report a negative descriptor at that point are not watched.
type Runner struct {
	host    *Host
	cfg     runnerConfig
	logger  *slog.Logger
	sources []source
	state   atomic.Int32
}

// NewRunner collects the event sources of an initialized host.
// Descriptors are only valid after Initialize, so the host must be ready.
func NewRunner(h *Host, opts ...RunnerOption) (*Runner, error) {
	if s := h.State(); s != StateReady {
		return nil, &LifecycleError{Op: "runner", State: s}
	}

	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.poller == nil {
		cfg.poller = newDefaultPoller()
	}

	r := &Runner{host: h, cfg: cfg, logger: h.logger}
	var fds []int
	for i, m := range h.modules {
		es, ok := m.(module.EventSource)
		if !ok {
			continue
		}
		fd := es.EventFD()
		if fd < 0 {
			continue
		}
		r.sources = append(r.sources, source{fd: fd, name: h.names[i], module: es})
		fds = append(fds, fd)
	}

	if err := cfg.poller.Watch(fds); err != nil {
		return nil, err
	}
	return r, nil
}

// State returns the runner state.
func (r *Runner) State() RunState {
	return RunState(r.state.Load())
}

// Sources returns the number of watched descriptors.
func (r *Runner) Sources() int {
	return len(r.sources)
}

// Stop asks the loop to exit before its next wait. A runner that never ran
// will not run. Safe to call from any goroutine and more than once.
func (r *Runner) Stop() {
	r.state.Store(int32(RunnerStopped))
}

// Run loops until one of:
//   - the exit check (WithExitCheck) returns true: returns nil
//   - Stop is called: returns nil
//   - a drain returns false: returns nil
//   - ctx ends: returns ctx.Err()
//   - a wait fails with a non-transient error: returns *WaitError
//   - a drain fails: returns *DrainError
//
// The exit check, Stop and ctx are checked before each wait, never during
// a drain. All ready sources of an iteration are drained unless one of
// them asks to stop. Run returns ErrRunnerStopped if the runner already
// stopped and ErrRunnerBusy if it is running.
func (r *Runner) Run(ctx context.Context, opts ...RunOption) (runErr error) {
	if ctx == nil {
		return ErrNilContext
	}
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if !r.state.CompareAndSwap(int32(RunnerIdle), int32(RunnerRunning)) {
		if r.State() == RunnerRunning {
			return ErrRunnerBusy
		}
		return ErrRunnerStopped
	}

	done := observability.TimedOperation()
	drains := 0
	reason := "stopped"
	observability.LogRunnerStart(r.logger, len(r.sources), r.cfg.pollTimeout)
	defer func() {
		r.state.Store(int32(RunnerStopped))
		if runErr != nil {
			reason = runErr.Error()
		}
		observability.LogRunnerStop(r.logger, reason, drains, done())
	}()

	for r.State() == RunnerRunning {
		if cfg.exitCheck != nil && cfg.exitCheck() {
			reason = "exit requested"
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ready, err := r.cfg.poller.Wait(r.cfg.pollTimeout)
		if err != nil {
			transient := cerrors.IsRetryable(err)
			r.host.cfg.metrics.RecordWaitError(ctx, transient)
			observability.LogWaitError(r.logger, err, transient)
			if transient {
				continue
			}
			return &WaitError{Err: err}
		}

		for _, i := range ready {
			src := r.sources[i]
			drains++
			more, err := r.drain(ctx, src)
			if err != nil {
				return &DrainError{Module: src.name, FD: src.fd, Err: err}
			}
			if !more {
				reason = "drain requested stop: " + src.name
				return nil
			}
		}
	}
	return nil
}

// drain runs one source's Drain with metrics and tracing.
func (r *Runner) drain(ctx context.Context, src source) (more bool, err error) {
	cfg := &r.host.cfg

	var span trace.Span
	if cfg.tracingEnabled {
		ctx, span = cfg.spans.StartDrainSpan(ctx, src.name)
		defer func() {
			cfg.spans.EndSpanWithError(span, err)
		}()
	}

	more, err = src.module.Drain(ctx)
	cfg.metrics.RecordDrain(ctx, src.name, err)
	if err != nil {
		observability.LogModuleError(r.logger, src.name, "drain", err)
	}
	return more, err
}
