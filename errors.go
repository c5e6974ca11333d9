package davgate

import "errors"

var (
	// ErrUnauthorized is returned when a request fails the authentication gate
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
)
