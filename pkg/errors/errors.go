// Package errors provides sentinel errors that can carry a nested cause,
// so that callers may match failures with errors.Is while the CLI still
// prints a descriptive, domain-specific message.
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New builds a sentinel Error with a fixed message.
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is an error with an optional nested cause.
//
// Unlike fmt.Errorf("%w", ...), wrapping does not alter the message of the
// sentinel: Error() returns the message given at construction time, and the
// cause remains reachable through Unwrap.
type Error struct {
	msg string
	err error
}

// Error message
func (e *Error) Error() string {
	return e.msg
}

// Unwrap the nested cause, if any
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap returns a copy of the sentinel carrying err as its cause.
//
// A copy is returned rather than mutating the receiver, so package-level
// sentinels stay safe to share.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err}
}

// WrapMessage returns a copy of the sentinel with extra context appended to
// its message. The original sentinel still matches with Is.
func (e *Error) WrapMessage(format string, args ...interface{}) *Error {
	return &Error{
		msg: e.msg + ": " + fmt.Sprintf(format, args...),
		err: e,
	}
}

// Is reports whether the target matches this error or its cause
func (e *Error) Is(target error) bool {
	if e == target {
		return true
	}
	return e.err != nil && stderr.Is(e.err, target)
}

// As finds the first error in err's chain that matches target
// (a shortcut to the standard library errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to the standard library errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
