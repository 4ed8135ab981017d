package types

import "errors"

var (
	// ErrValidation marks bad or missing client input.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks a username already active in a level.
	ErrConflict = errors.New("username already taken in this level")
	// ErrSessionNotFound marks an unknown or expired session token.
	ErrSessionNotFound = errors.New("invalid or expired session")
	// ErrUpstreamUnavailable marks a failed external lookup. It is always
	// absorbed and never reaches a client.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
