package compositor

import (
	"errors"
	"fmt"
)

// Sentinel errors for the host and runner.
var (
	// ErrNilContext indicates a lifecycle method was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrModuleNotFound indicates ModuleOf was asked for a type the host does not own.
	ErrModuleNotFound = errors.New("module not found")

	// ErrInvalidState indicates a lifecycle method was called out of order.
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrRunnerStopped indicates Run was called on a runner that already stopped.
	ErrRunnerStopped = errors.New("runner stopped")

	// ErrRunnerBusy indicates Run was called while the runner was running.
	ErrRunnerBusy = errors.New("runner already running")
)

// LifecycleError reports a host lifecycle method called in the wrong state.
type LifecycleError struct {
	// Op is the attempted operation ("initialize", "runner").
	Op string
	// State is the host state at the time of the call.
	State State
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s: host is %s: %v", e.Op, e.State, ErrInvalidState)
}

// Unwrap returns ErrInvalidState for errors.Is support.
func (e *LifecycleError) Unwrap() error {
	return ErrInvalidState
}

// ModuleError wraps an error returned by a module lifecycle hook.
type ModuleError struct {
	// Module is the module's display name.
	Module string
	// Op is the hook that failed ("initialize", "cleanup").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s: %s: %v", e.Module, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ModuleError) Unwrap() error {
	return e.Err
}

// WaitError reports a readiness wait that failed with a non-transient error.
type WaitError struct {
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *WaitError) Error() string {
	return fmt.Sprintf("wait for readiness: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *WaitError) Unwrap() error {
	return e.Err
}

// DrainError reports an event source whose drain failed.
type DrainError struct {
	// Module is the owning module's display name.
	Module string
	// FD is the descriptor that was ready.
	FD int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DrainError) Error() string {
	return fmt.Sprintf("drain %s (fd %d): %v", e.Module, e.FD, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DrainError) Unwrap() error {
	return e.Err
}
