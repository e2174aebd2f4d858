package bus

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/compositor/pkg/compositor/message"
)

// Sentinel errors for delivery.
var (
	// ErrNoHandler indicates a command or request had no matching binding.
	ErrNoHandler = errors.New("no handler bound")

	// ErrTypeMismatch indicates a binding was invoked with a message of a
	// different type than it was bound to.
	ErrTypeMismatch = errors.New("message type mismatch")
)

// NoHandlerError reports a command or request delivered to a table with
// no binding for its type.
type NoHandlerError struct {
	// Kind is the delivery shape.
	Kind message.Kind
	// Message is the unmatched message type.
	Message message.Type
}

// Error implements the error interface.
func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Message, ErrNoHandler)
}

// Unwrap returns ErrNoHandler for errors.Is support.
func (e *NoHandlerError) Unwrap() error {
	return ErrNoHandler
}

// MismatchError reports a guarded downcast that failed.
type MismatchError struct {
	// Bound is the message type the binding accepts.
	Bound message.Type
	// Got is a description of the value that was passed.
	Got string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("binding for %s invoked with %s: %v", e.Bound, e.Got, ErrTypeMismatch)
}

// Unwrap returns ErrTypeMismatch for errors.Is support.
func (e *MismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// HandlerError wraps an error returned by a bound handler.
type HandlerError struct {
	// Kind is the delivery shape.
	Kind message.Kind
	// Message is the delivered message type.
	Message message.Type
	// Label is the binding label, if one was set.
	Label string
	// Position is the binding's index within the table.
	Position int
	// Err is the handler's error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s %s: handler %s: %v", e.Kind, e.Message, e.Label, e.Err)
	}
	return fmt.Sprintf("%s %s: handler #%d: %v", e.Kind, e.Message, e.Position, e.Err)
}

// Unwrap returns the handler's error for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
