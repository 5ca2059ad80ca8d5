package core

import "errors"

// Error codes reported by the backend in error envelopes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeInvalidCode  = "invalid_code"
	ErrCodeNotFound     = "not_found"
)

var (
	// ErrNotFound is returned by session stores for missing keys.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the backend rejects the bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSignInInProgress is returned when a second sign-in starts while one is authorizing.
	ErrSignInInProgress = errors.New("sign-in already in progress")
	// ErrInvalidTransition is returned for an event not accepted in the current session state.
	ErrInvalidTransition = errors.New("invalid session transition")
)
