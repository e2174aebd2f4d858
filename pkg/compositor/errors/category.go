// Package errors classifies runtime failures so the run loop can decide
// between retrying and stopping.
//
// Readiness waits fail for two very different reasons: a benign
// interruption (a signal arrived while blocked, or the kernel asked the
// caller to try again) or a real fault (bad descriptor, out of memory).
// Categorize separates the two.
package errors

import (
	"context"
	"errors"
	"fmt"
	"syscall"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retrying the operation will likely help.
	// Examples: EINTR, EAGAIN.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retrying won't help.
	// Examples: EBADF, EINVAL, ENOMEM.
	CategoryPermanent

	// CategoryCancelled indicates the caller's context ended.
	CategoryCancelled
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Op describes what operation was being attempted.
	Op string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Category)
	}
	return fmt.Sprintf("%v (%s)", e.Err, e.Category)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// Transient marks err as transient.
func Transient(err error, op string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryTransient, Op: op}
}

// Permanent marks err as permanent.
func Permanent(err error, op string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryPermanent, Op: op}
}

// Categorize determines how an error should be handled.
// Unknown errors are permanent.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryCancelled
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EINTR, syscall.EAGAIN:
			return CategoryTransient
		}
		if errno.Temporary() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	// Errors from the os and net packages expose Temporary.
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) && temp.Temporary() {
		return CategoryTransient
	}

	return CategoryPermanent
}

// IsRetryable reports whether the operation that returned err should be
// retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
