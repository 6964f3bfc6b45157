// Package perrors implements the error taxonomy used throughout pearl: a
// small set of sentinel categories that replay drivers, tasks and the
// active-message runtime classify their failures against.
//
// Category and message are kept on separate fields so that callers can match
// with errors.Is/errors.As without parsing strings, while a human still gets
// a single-line, non-localized message via Error().
package perrors

import (
	"errors"
	"fmt"
)

// Category is one of the closed set of error kinds from spec.md §7.
type Category int

const (
	// IoError indicates an underlying transport or file failure. Transient;
	// the surrounding Task may retry at its discretion.
	IoError Category = iota

	// FormatError indicates a malformed buffer, an unknown event variant id,
	// or a truncated record. Aborts the current pass.
	FormatError

	// UnknownDefinition indicates a reference into GlobalDefs that cannot be
	// resolved. Aborts the current pass.
	UnknownDefinition

	// CalltreeViolation indicates an enter/leave mismatch during
	// verification. Aborts the current pass.
	CalltreeViolation

	// RuntimeError indicates an invariant violation surfaced from a
	// callback; it propagates through replay to the caller.
	RuntimeError

	// FatalError indicates unrecoverable state (allocation failure,
	// programmer bug). The process should terminate after flushing
	// diagnostics; this category is not expected to be recovered from.
	FatalError
)

// String renders the category name used in Error()'s single-line prefix.
func (c Category) String() string {
	switch c {
	case IoError:
		return "IoError"
	case FormatError:
		return "FormatError"
	case UnknownDefinition:
		return "UnknownDefinition"
	case CalltreeViolation:
		return "CalltreeViolation"
	case RuntimeError:
		return "RuntimeError"
	case FatalError:
		return "FatalError"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error value carrying a Category, a human-readable
// message and an optional wrapped cause.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

// Error implements the error interface as "<Category>: <Message>".
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error with the same Category, which lets
// errors.Is(err, perrors.New(perrors.FormatError, "")) act as a category
// test when the target carries no message of its own.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Category == e.Category
}

// New constructs an *Error with no wrapped cause.
func New(category Category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error that records cause as the underlying reason.
func Wrap(category Category, cause error, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// sentinel values usable directly with errors.Is for a bare category check.
var (
	ErrIO                = &Error{Category: IoError}
	ErrFormat            = &Error{Category: FormatError}
	ErrUnknownDefinition = &Error{Category: UnknownDefinition}
	ErrCalltreeViolation = &Error{Category: CalltreeViolation}
	ErrRuntime           = &Error{Category: RuntimeError}
	ErrFatal             = &Error{Category: FatalError}
)

// Categorize returns the Category of err if it (or something it wraps) is a
// *Error, and ok=false otherwise.
func Categorize(err error) (cat Category, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Category, true
	}
	return 0, false
}
