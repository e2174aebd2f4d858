package bus

import (
	"context"
	"fmt"

	"github.com/randalmurphal/compositor/pkg/compositor/message"
)

// invoker is the type-erased form of a handler.
type invoker func(ctx context.Context, msg any) (any, error)

// Binding pairs a message type with the handler that receives it.
// Bindings are values; copying one is cheap and never shares mutable state.
type Binding struct {
	msg    message.Type
	kind   message.Kind
	label  string
	invoke invoker
}

// BindingOption configures a binding.
type BindingOption func(*Binding)

// WithLabel names the binding in errors and logs.
func WithLabel(label string) BindingOption {
	return func(b *Binding) {
		b.label = label
	}
}

// OnEvent binds fn as a subscriber of Event[P].
//
// Panics if fn is nil.
func OnEvent[P any](fn func(ctx context.Context, evt message.Event[P]) error, opts ...BindingOption) Binding {
	if fn == nil {
		panic("bus: event handler cannot be nil")
	}
	return newBinding[message.Event[P]](message.KindEvent, func(ctx context.Context, m message.Event[P]) (any, error) {
		return nil, fn(ctx, m)
	}, opts)
}

// OnCommand binds fn as the handler of Command[P].
//
// Panics if fn is nil.
func OnCommand[P any](fn func(ctx context.Context, cmd message.Command[P]) error, opts ...BindingOption) Binding {
	if fn == nil {
		panic("bus: command handler cannot be nil")
	}
	return newBinding[message.Command[P]](message.KindCommand, func(ctx context.Context, m message.Command[P]) (any, error) {
		return nil, fn(ctx, m)
	}, opts)
}

// OnRequest binds fn as the handler of Request[P, R].
//
// Panics if fn is nil.
func OnRequest[P, R any](fn func(ctx context.Context, req message.Request[P, R]) (R, error), opts ...BindingOption) Binding {
	if fn == nil {
		panic("bus: request handler cannot be nil")
	}
	return newBinding[message.Request[P, R]](message.KindRequest, func(ctx context.Context, m message.Request[P, R]) (any, error) {
		return fn(ctx, m)
	}, opts)
}

func newBinding[M any](kind message.Kind, fn func(context.Context, M) (any, error), opts []BindingOption) Binding {
	bound := message.TypeOf[M]()
	b := Binding{
		msg:  bound,
		kind: kind,
		invoke: func(ctx context.Context, msg any) (any, error) {
			m, ok := msg.(M)
			if !ok {
				return nil, &MismatchError{Bound: bound, Got: fmt.Sprintf("%T", msg)}
			}
			return fn(ctx, m)
		},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Message returns the bound message type.
func (b Binding) Message() message.Type {
	return b.msg
}

// Kind returns the bound message's delivery shape.
func (b Binding) Kind() message.Kind {
	return b.kind
}

// Label returns the binding label, or "" if none was set.
func (b Binding) Label() string {
	return b.label
}

// Matches reports whether the binding accepts messages of type t.
func (b Binding) Matches(t message.Type) bool {
	return b.msg.Equal(t)
}

// Invoke calls the handler with msg.
// The response is nil for events and commands.
// If msg is not of the bound type the handler is not called and a
// *MismatchError is returned.
func (b Binding) Invoke(ctx context.Context, msg any) (any, error) {
	if b.invoke == nil {
		return nil, &MismatchError{Bound: b.msg, Got: fmt.Sprintf("%T", msg)}
	}
	return b.invoke(ctx, msg)
}
