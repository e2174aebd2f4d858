// Package module defines the contract independent units implement to take
// part in a compositor, and the composer that folds their bindings into a
// single dispatch table.
//
// Every module contributes bindings through Register. The other
// capabilities are optional and discovered by interface assertion:
//
//	type Clock struct{ fd int }
//
//	func (c *Clock) Register(t *bus.Table) *bus.Table { return t }
//	func (c *Clock) Initialize(ctx context.Context) error { ... } // Initializer
//	func (c *Clock) Cleanup(ctx context.Context) error    { ... } // Cleaner
//	func (c *Clock) EventFD() int                         { return c.fd } // EventSource
//	func (c *Clock) Drain(ctx context.Context) (bool, error) { ... }
package module

import (
	"context"
	"fmt"

	"github.com/randalmurphal/compositor/pkg/compositor/bus"
)

// Module contributes bindings to a dispatch table.
//
// Register must return t extended with the module's bindings, or t itself
// if the module binds nothing. It must not retain t.
type Module interface {
	Register(t *bus.Table) *bus.Table
}

// Initializer is implemented by modules that acquire resources before use.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Cleaner is implemented by modules that release resources at teardown.
// Cleanup must be safe to call when Initialize failed or never ran.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// EventSource is implemented by modules that own a pollable OS descriptor.
type EventSource interface {
	// EventFD returns the descriptor to watch for readability, or a
	// negative value if the module has no descriptor right now.
	EventFD() int

	// Drain consumes every pending event on the descriptor without
	// blocking, turning each into zero or more bus messages.
	// Returning false asks the runner to stop.
	Drain(ctx context.Context) (bool, error)
}

// PublishFunc publishes payload as an event on the host's bus.
type PublishFunc[P any] func(ctx context.Context, payload P) error

// PublisherSink is implemented by modules that originate events with
// payload P from an external source. The host supplies the callback after
// construction; the module invokes it once per observed occurrence.
type PublisherSink[P any] interface {
	SetPublisher(publish PublishFunc[P])
}

// BusUser is implemented by modules that send messages from inside their
// own handlers. The host calls UseBus once with the composed table, after
// every module has registered.
type BusUser interface {
	UseBus(t *bus.Table)
}

// Namer is implemented by modules that provide a display name.
type Namer interface {
	Name() string
}

// Name returns m's display name: Name() if implemented, else its Go type.
func Name(m Module) string {
	if n, ok := m.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}

// Compose folds each module's bindings into t in argument order.
// Binding order in the result is strictly composition order, so for
// commands and requests bound by several modules the earliest module wins.
// A nil t starts from an empty table.
func Compose(t *bus.Table, modules ...Module) *bus.Table {
	if t == nil {
		t = bus.New()
	}
	for _, m := range modules {
		if m == nil {
			continue
		}
		t = m.Register(t)
	}
	return t
}

// Funcs assembles a Module from functions. Nil fields are treated as absent
// capabilities: a Funcs with a nil OnInitialize is still an Initializer but
// its Initialize is a no-op.
type Funcs struct {
	// Label is returned by Name.
	Label string

	// Bindings are contributed by Register, in order.
	Bindings []bus.Binding

	// OnInitialize runs from Initialize.
	OnInitialize func(ctx context.Context) error

	// OnCleanup runs from Cleanup.
	OnCleanup func(ctx context.Context) error
}

// Register implements Module.
func (f *Funcs) Register(t *bus.Table) *bus.Table {
	if len(f.Bindings) == 0 {
		return t
	}
	return t.ExtendAll(f.Bindings...)
}

// Name implements Namer.
func (f *Funcs) Name() string {
	if f.Label == "" {
		return "funcs"
	}
	return f.Label
}

// Initialize implements Initializer.
func (f *Funcs) Initialize(ctx context.Context) error {
	if f.OnInitialize == nil {
		return nil
	}
	return f.OnInitialize(ctx)
}

// Cleanup implements Cleaner.
func (f *Funcs) Cleanup(ctx context.Context) error {
	if f.OnCleanup == nil {
		return nil
	}
	return f.OnCleanup(ctx)
}

// Compile-time interface checks.
var (
	_ Module      = (*Funcs)(nil)
	_ Initializer = (*Funcs)(nil)
	_ Cleaner     = (*Funcs)(nil)
	_ Namer       = (*Funcs)(nil)
)
