// Package web defines common components for a web application.
package web

import (
	"errors"

	"github.com/go-petr/wholecoin/pkg/errorspkg"
)

// JSONError provides type for explicit json encoded error response.
type JSONError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error wraps a given err into json friendly struct. Errors without a code are
// reported as internal and their message is not exposed.
func Error(err error) *JSONError {
	var e *errorspkg.Error
	if errors.As(err, &e) {
		return &JSONError{Code: e.Code, Message: e.Message}
	}

	return &JSONError{Code: errorspkg.ErrInternal.Code, Message: errorspkg.ErrInternal.Message}
}

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken          string     `json:"access_token,omitempty"`
	AccessTokenExpiresAt string     `json:"access_token_expires_at,omitempty"`
	Data                 any        `json:"data,omitempty"`
	Error                *JSONError `json:"error,omitempty"`
}
