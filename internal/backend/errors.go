package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the Booking Store has no record for the
	// requested booking.
	ErrNotFound = errors.New("booking not found")

	// ErrUnauthorized is returned when the Booking Store rejects the
	// session token.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response from the Booking Store carrying the
// server-supplied message, or a generic fallback when the body had none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking store returned status %d", e.StatusCode)
	}
	return e.Message
}
