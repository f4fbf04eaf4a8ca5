package services

import "errors"

var (
	ErrValidation             = errors.New("validation failed")
	ErrNoCredits              = errors.New("no credits remaining")
	ErrNotAuthenticated       = errors.New("not signed in")
	ErrFederatedLoginDisabled = errors.New("google sign-in is not configured")
)
