// Package message defines the three message shapes routed by the bus.
//
// A message type is a generic instantiation of Event, Command or Request.
// Applications name their messages with type aliases so the alias and the
// instantiation are the same type:
//
//	type KeyPress struct{ Key string }
//	type KeyPressEvent = message.Event[KeyPress]
//
//	type CountQuery struct{ Key string }
//	type CountRequest = message.Request[CountQuery, int]
//
// Routing is by exact type identity: two messages match the same bindings
// if and only if they are the same instantiation.
package message

import (
	"fmt"
	"strings"
)

// Kind is the delivery shape of a message.
type Kind int

const (
	// KindEvent is a broadcast with no response and any number of subscribers.
	KindEvent Kind = iota

	// KindCommand is an imperative message with no response.
	// Only the first registered handler runs.
	KindCommand

	// KindRequest is a query producing a typed response.
	// Only the first registered handler runs.
	KindRequest
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindCommand:
		return "command"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Event is a fire-and-forget broadcast carrying a payload of type P.
type Event[P any] struct {
	Payload P
}

// Kind returns KindEvent.
func (Event[P]) Kind() Kind { return KindEvent }

// Command is a single-handler imperative message carrying a payload of type P.
type Command[P any] struct {
	Payload P
}

// Kind returns KindCommand.
func (Command[P]) Kind() Kind { return KindCommand }

// Request is a single-handler query carrying a payload of type P and
// answered with a value of type R.
type Request[P, R any] struct {
	Payload P
}

// Kind returns KindRequest.
func (Request[P, R]) Kind() Kind { return KindRequest }

// Message is implemented by every message shape.
type Message interface {
	Kind() Kind
}

// NewEvent wraps payload in an Event.
func NewEvent[P any](payload P) Event[P] {
	return Event[P]{Payload: payload}
}

// NewCommand wraps payload in a Command.
func NewCommand[P any](payload P) Command[P] {
	return Command[P]{Payload: payload}
}

// NewRequest wraps payload in a Request answered with R.
//
//	req := message.NewRequest[int](CountQuery{Key: "a"})
func NewRequest[R, P any](payload P) Request[P, R] {
	return Request[P, R]{Payload: payload}
}

// Type identifies a message type.
// Two Type values are equal if and only if they were produced by TypeOf
// with the same type argument.
type Type struct {
	// key holds a nil *M. Interface equality compares dynamic types, so the
	// key distinguishes instantiations without reflection.
	key any
}

// TypeOf returns the identifier for message type M.
func TypeOf[M any]() Type {
	return Type{key: (*M)(nil)}
}

// String returns the Go type name, e.g. "message.Event[main.KeyPress]".
func (t Type) String() string {
	if t.key == nil {
		return "<none>"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", t.key), "*")
}

// IsZero reports whether t was not produced by TypeOf.
func (t Type) IsZero() bool {
	return t.key == nil
}

// Equal reports whether t and other identify the same message type.
func (t Type) Equal(other Type) bool {
	return t.key == other.key
}
