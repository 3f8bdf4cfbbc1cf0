package api

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *Error carries exactly one of these as its Kind.
var (
	// ErrConfig reports missing or conflicting environment values and invalid log levels.
	ErrConfig = errors.New("configuration error")
	// ErrValidation reports an empty tool list, an unknown tool type or format,
	// or a malformed persisted document.
	ErrValidation = errors.New("validation error")
	// ErrBuild reports an operation invoked out of lifecycle order.
	ErrBuild = errors.New("build error")
	// ErrInitialization reports a missing serving runtime or a failed initialize hook.
	ErrInitialization = errors.New("initialization error")
	// ErrPreset reports an unknown preset or a failing preset factory.
	ErrPreset = errors.New("preset error")
)

// Error is a classified mcpstack failure.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	// Message names the offending key or identifier.
	Message string

	// Known lists the valid alternatives when the failure is a lookup miss.
	Known []string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	if len(e.Known) > 0 {
		fmt.Fprintf(&b, " (available: %s)", strings.Join(e.Known, ", "))
	}
	return b.String()
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around cause.
func Wrap(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// WithKnown attaches the list of valid alternatives and returns the same error.
func (e *Error) WithKnown(known []string) *Error {
	e.Known = append([]string(nil), known...)
	return e
}

// KnownAlternatives returns the valid names attached to err, or nil.
func KnownAlternatives(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Known
	}
	return nil
}

// KindOf returns the kind of the first *Error in err's chain, or nil.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
