package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection means the remote store stayed unreachable after the
	// retry budget was spent.
	ErrConnection = errors.New("connection error")

	// ErrStorage means a single add/delete call failed.
	ErrStorage = errors.New("storage error")

	// ErrSerialization means a stored record could not be decoded.
	ErrSerialization = errors.New("serialization error")

	// ErrValidation means an analysis payload was malformed or incomplete.
	ErrValidation = errors.New("validation error")

	// ErrTimeout means an operation was abandoned after its deadline.
	ErrTimeout = errors.New("operation timed out")

	ErrNotFound = errors.New("memory not found")
)

// Error tags an underlying error with its kind and the failing operation.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns nil when err is nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// NewError builds an Error without an underlying cause.
func NewError(kind error, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
