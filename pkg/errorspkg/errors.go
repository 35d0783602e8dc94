// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// Error is an application error with a stable machine-readable code.
type Error struct {
	Code    string
	Message string
}

// New returns an application error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// ErrInternal indicates internal server error.
var ErrInternal = New("INTERNAL", "internal")

// Code returns the code carried by err, or the internal error code when err
// is not an application error.
func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return ErrInternal.Code
}
