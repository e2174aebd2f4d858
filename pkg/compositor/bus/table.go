package bus

import (
	"context"

	"github.com/randalmurphal/compositor/pkg/compositor/message"
)

// Observer is notified around every delivery.
// Deliver is called before the first matching handler runs; the returned
// context is passed to the handlers and the returned function is called
// once delivery finishes with the number of handlers invoked and the
// delivery error, if any.
type Observer interface {
	Deliver(ctx context.Context, kind message.Kind, msg message.Type) (context.Context, func(handlers int, err error))
}

type noopObserver struct{}

func (noopObserver) Deliver(ctx context.Context, _ message.Kind, _ message.Type) (context.Context, func(int, error)) {
	return ctx, func(int, error) {}
}

// Table is an immutable, ordered list of bindings.
//
// Extend never modifies the receiver: it returns a new table with the
// binding appended, so a reference to an earlier table keeps resolving
// exactly as before. A Table is safe to share between goroutines.
//
// Events are delivered to every matching binding in registration order.
// Commands and requests are delivered to the first matching binding only;
// later bindings of the same type are unreachable.
type Table struct {
	bindings []Binding
	observer Observer
}

// Option configures a table.
type Option func(*Table)

// WithObserver installs an observer. It is carried over by Extend.
func WithObserver(o Observer) Option {
	return func(t *Table) {
		if o != nil {
			t.observer = o
		}
	}
}

// New returns an empty table.
func New(opts ...Option) *Table {
	t := &Table{observer: noopObserver{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Extend returns a table with b appended after every existing binding.
func (t *Table) Extend(b Binding) *Table {
	return t.ExtendAll(b)
}

// ExtendAll returns a table with bs appended in order.
func (t *Table) ExtendAll(bs ...Binding) *Table {
	existing := t.list()
	next := make([]Binding, len(existing), len(existing)+len(bs))
	copy(next, existing)
	next = append(next, bs...)
	return &Table{bindings: next, observer: t.obs()}
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	return len(t.list())
}

// Bindings returns a copy of the bindings in registration order.
func (t *Table) Bindings() []Binding {
	out := make([]Binding, len(t.list()))
	copy(out, t.list())
	return out
}

// Count returns the number of bindings for message type mt.
func (t *Table) Count(mt message.Type) int {
	n := 0
	for _, b := range t.list() {
		if b.Matches(mt) {
			n++
		}
	}
	return n
}

func (t *Table) list() []Binding {
	if t == nil {
		return nil
	}
	return t.bindings
}

func (t *Table) obs() Observer {
	if t == nil || t.observer == nil {
		return noopObserver{}
	}
	return t.observer
}

// Subscribe returns t extended with an event subscriber.
func Subscribe[P any](t *Table, fn func(ctx context.Context, evt message.Event[P]) error, opts ...BindingOption) *Table {
	return t.Extend(OnEvent(fn, opts...))
}

// Handle returns t extended with a command handler.
func Handle[P any](t *Table, fn func(ctx context.Context, cmd message.Command[P]) error, opts ...BindingOption) *Table {
	return t.Extend(OnCommand(fn, opts...))
}

// Answer returns t extended with a request handler.
func Answer[P, R any](t *Table, fn func(ctx context.Context, req message.Request[P, R]) (R, error), opts ...BindingOption) *Table {
	return t.Extend(OnRequest(fn, opts...))
}

// Publish delivers evt to every subscriber of its type, in registration
// order. With no subscribers it does nothing and returns nil.
//
// If a subscriber returns an error, later subscribers are not called and the
// error is returned wrapped in a *HandlerError. Panics are not recovered.
func Publish[P any](ctx context.Context, t *Table, evt message.Event[P]) error {
	mt := message.TypeOf[message.Event[P]]()
	ctx, done := t.obs().Deliver(ctx, message.KindEvent, mt)

	invoked := 0
	for i, b := range t.list() {
		if !b.Matches(mt) {
			continue
		}
		invoked++
		if _, err := b.Invoke(ctx, evt); err != nil {
			herr := &HandlerError{Kind: message.KindEvent, Message: mt, Label: b.label, Position: i, Err: err}
			done(invoked, herr)
			return herr
		}
	}

	done(invoked, nil)
	return nil
}

// Dispatch delivers cmd to the first handler bound to its type.
// Returns a *NoHandlerError (errors.Is ErrNoHandler) if none is bound.
func Dispatch[P any](ctx context.Context, t *Table, cmd message.Command[P]) error {
	_, err := first(ctx, t, message.KindCommand, message.TypeOf[message.Command[P]](), cmd)
	return err
}

// Ask delivers req to the first handler bound to its type and returns the
// handler's response.
//
// If no handler is bound, Ask returns the zero R and a *NoHandlerError
// (errors.Is ErrNoHandler). It never panics on a missing handler.
func Ask[P, R any](ctx context.Context, t *Table, req message.Request[P, R]) (R, error) {
	var zero R
	out, err := first(ctx, t, message.KindRequest, message.TypeOf[message.Request[P, R]](), req)
	if err != nil {
		return zero, err
	}
	resp, ok := out.(R)
	if !ok {
		// A nil interface response for an interface-typed R.
		return zero, nil
	}
	return resp, nil
}

// first runs the first binding matching mt.
func first(ctx context.Context, t *Table, kind message.Kind, mt message.Type, msg any) (any, error) {
	ctx, done := t.obs().Deliver(ctx, kind, mt)

	for i, b := range t.list() {
		if !b.Matches(mt) {
			continue
		}
		out, err := b.Invoke(ctx, msg)
		if err != nil {
			herr := &HandlerError{Kind: kind, Message: mt, Label: b.label, Position: i, Err: err}
			done(1, herr)
			return nil, herr
		}
		done(1, nil)
		return out, nil
	}

	err := &NoHandlerError{Kind: kind, Message: mt}
	done(0, err)
	return nil, err
}
