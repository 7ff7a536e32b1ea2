package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is a coded execution-engine error with SQLSTATE-style codes.
// The engine recovers from nothing itself: every Error is either prevented
// by a precondition check at a component boundary or propagated unchanged
// to the owning pipeline, which decides whether the whole query fails.
type Error struct {
	Code    string // SQLSTATE code
	Message string // Primary error message
	Detail  string // Optional detailed error message
	Where   string // Context where error occurred
	cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Where != "" {
		msg = fmt.Sprintf("%s: %s", e.Where, msg)
	}
	msg = fmt.Sprintf("%s (SQLSTATE %s)", msg, e.Code)
	if e.Detail != "" {
		msg = fmt.Sprintf("%s DETAIL: %s", msg, e.Detail)
	}
	return msg
}

// Unwrap returns the wrapped cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a new Error with the given code and message
func New(code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error that wraps a cause
func Wrap(cause error, code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// WithDetail adds detail to the error
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf adds formatted detail to the error
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithWhere records the component where the error occurred
func (e *Error) WithWhere(where string) *Error {
	e.Where = where
	return e
}

// HasCode reports whether err (or anything it wraps) is an Error with the
// given SQLSTATE code.
func HasCode(err error, code string) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}
