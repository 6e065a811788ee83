package repository

import (
	"context"

	"bookingwatch/internal/domain"
)

// TransitionRepository defines the persistence operations for the journal
// of observed booking status transitions.
type TransitionRepository interface {
	// Record persists one observed transition.
	Record(ctx context.Context, t *domain.Transition) error

	// ListByBooking retrieves a booking's transitions, oldest first.
	ListByBooking(ctx context.Context, bookingID string) ([]*domain.Transition, error)
}
