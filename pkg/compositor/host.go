package compositor

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/randalmurphal/compositor/pkg/compositor/bus"
	"github.com/randalmurphal/compositor/pkg/compositor/module"
	"github.com/randalmurphal/compositor/pkg/compositor/observability"
	"github.com/randalmurphal/compositor/pkg/compositor/registry"
)

// State is the host lifecycle state. Transitions are strictly forward.
type State int32

const (
	// StateCreated is the state after New.
	StateCreated State = iota
	// StateInitializing is the state while module initializers run.
	StateInitializing
	// StateReady is the state after every initializer succeeded.
	StateReady
	// StateFailed is the state after an initializer failed.
	StateFailed
	// StateClosed is the state after Cleanup.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Host owns a fixed list of modules and the dispatch table composed from
// them.
//
// The table is built once in New and never changes. Publish, Dispatch and
// Ask may be called from handlers to re-enter the bus.
type Host struct {
	cfg     hostConfig
	logger  *slog.Logger
	modules []module.Module
	names   []string
	table   *bus.Table
	slots   *registry.Index[reflect.Type, int]
	state   atomic.Int32
}

// New takes ownership of modules and composes their bindings in order.
// Nil modules are dropped.
func New(modules []module.Module, opts ...Option) *Host {
	cfg := defaultHostConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	h := &Host{
		cfg:    cfg,
		logger: observability.EnrichLogger(cfg.logger, cfg.id),
		slots:  registry.New[reflect.Type, int](),
	}

	for _, m := range modules {
		if m == nil {
			continue
		}
		h.slots.Add(reflect.TypeOf(m), len(h.modules))
		h.modules = append(h.modules, m)
		h.names = append(h.names, module.Name(m))
	}
	h.slots.Freeze()

	var base *bus.Table
	if cfg.observed() {
		base = bus.New(bus.WithObserver(&deliveryObserver{cfg: &h.cfg, logger: h.logger}))
	} else {
		base = bus.New()
	}
	h.table = module.Compose(base, h.modules...)
	for _, m := range h.modules {
		if u, ok := m.(module.BusUser); ok {
			u.UseBus(h.table)
		}
	}
	return h
}

// NewInitialized builds a host and initializes it. If initialization
// fails, the host is cleaned up and the joined errors are returned.
func NewInitialized(ctx context.Context, modules []module.Module, opts ...Option) (*Host, error) {
	h := New(modules, opts...)
	if err := h.Initialize(ctx); err != nil {
		if ctx == nil {
			return nil, err
		}
		return nil, errors.Join(err, h.Cleanup(ctx))
	}
	return h, nil
}

// ID returns the host instance ID.
func (h *Host) ID() string {
	return h.cfg.id
}

// Bus returns the composed dispatch table.
func (h *Host) Bus() *bus.Table {
	return h.table
}

// Modules returns the owned modules in construction order.
func (h *Host) Modules() []module.Module {
	out := make([]module.Module, len(h.modules))
	copy(out, h.modules)
	return out
}

// State returns the lifecycle state.
func (h *Host) State() State {
	return State(h.state.Load())
}

// Initialize runs every module's Initialize hook in construction order.
// Modules without the hook are skipped. The first failure stops
// initialization and is returned as a *ModuleError; Cleanup remains safe.
//
// Initialize may only be called once, on a freshly created host.
func (h *Host) Initialize(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if !h.state.CompareAndSwap(int32(StateCreated), int32(StateInitializing)) {
		return &LifecycleError{Op: "initialize", State: h.State()}
	}

	done := observability.TimedOperation()
	observability.LogHostInitialize(h.logger, h.cfg.id, len(h.modules))

	for i, m := range h.modules {
		init, ok := m.(module.Initializer)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			h.state.Store(int32(StateFailed))
			return err
		}

		step := observability.TimedOperation()
		if err := init.Initialize(ctx); err != nil {
			h.state.Store(int32(StateFailed))
			observability.LogModuleError(h.logger, h.names[i], "initialize", err)
			return &ModuleError{Module: h.names[i], Op: "initialize", Err: err}
		}
		observability.LogModuleInitialized(h.logger, h.names[i], step())
	}

	h.state.Store(int32(StateReady))
	observability.LogHostReady(h.logger, h.cfg.id, done(), h.table.Len())
	return nil
}

// Cleanup runs every module's Cleanup hook in construction order, whether
// or not Initialize ran or succeeded. Every hook runs even if an earlier
// one fails; the failures are joined.
//
// Cleanup is idempotent: calls after the first return nil.
func (h *Host) Cleanup(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if State(h.state.Swap(int32(StateClosed))) == StateClosed {
		return nil
	}

	var errs []error
	cleaned := 0
	for i, m := range h.modules {
		c, ok := m.(module.Cleaner)
		if !ok {
			continue
		}
		cleaned++
		if err := c.Cleanup(ctx); err != nil {
			observability.LogModuleError(h.logger, h.names[i], "cleanup", err)
			errs = append(errs, &ModuleError{Module: h.names[i], Op: "cleanup", Err: err})
		}
	}

	err := errors.Join(errs...)
	observability.LogCleanup(h.logger, h.cfg.id, cleaned, err)
	return err
}
