package service

import "errors"

var (
	// ErrInvalidBookingID is returned when a booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidRole is returned when a role is not rider or driver.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidFilter is returned when a list filter type is unknown.
	ErrInvalidFilter = errors.New("invalid list filter")

	// ErrSessionNotFound is returned when no session exists for an ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded is returned when acting on a session that has
	// already reached a terminal state or been stopped.
	ErrSessionEnded = errors.New("session already ended")

	// ErrTrackingExists is returned when the same booking is already being
	// tracked for this user.
	ErrTrackingExists = errors.New("booking already has a tracking session")

	// ErrActionPending is returned when a mutating action is issued while
	// a previous one has not yet been reflected by a poll.
	ErrActionPending = errors.New("previous action not yet confirmed by poll")

	// ErrActionNotAllowed is returned when an action does not apply to the
	// session's role or the booking's last observed status.
	ErrActionNotAllowed = errors.New("action not allowed in current state")

	// ErrNoObservation is returned when an action is issued before the
	// first successful poll has established the booking's state.
	ErrNoObservation = errors.New("booking state not yet observed")
)
