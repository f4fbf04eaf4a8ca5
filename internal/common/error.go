package common

import "errors"

// ErrorMessageFallback is shown when an error carries no usable text.
const ErrorMessageFallback = "An unexpected error occurred"

var (
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoSession is returned when credentials are written to a session
	// that has been logged out.
	ErrNoSession = errors.New("no active session")
)
