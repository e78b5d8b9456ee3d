package service

import "errors"

// Error taxonomy shared by the core services. Handlers map these to HTTP
// statuses; anything unwrapped is treated as an internal failure.
var (
	// ErrNotFound indicates a conversation, notification or call session is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates no valid receiver exists or a call-state
	// transition is illegal.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation indicates a malformed payload, e.g. an empty message
	// with no media.
	ErrValidation = errors.New("validation failed")
)
