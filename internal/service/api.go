package service

import (
	"context"
	"time"

	"bookingwatch/internal/backend"
	"bookingwatch/internal/domain"
)

// Ensure the real client satisfies the interface.
var _ BookingAPI = (*backend.Client)(nil)

// BookingAPI is the slice of the Booking Store client the sessions need.
// This interface allows for testing with mock implementations.
type BookingAPI interface {
	ListMine(ctx context.Context, filter domain.ListFilter) (*domain.BookingPage, error)
	Get(ctx context.Context, bookingID string) (*domain.Booking, error)
	DriverGet(ctx context.Context, bookingID string) (*domain.Booking, error)
	DriverActive(ctx context.Context) (*domain.Booking, error)
	Available(ctx context.Context) ([]*domain.Booking, error)

	Cancel(ctx context.Context, bookingID string) error
	Start(ctx context.Context, bookingID string) error
	Complete(ctx context.Context, bookingID string) error
	CompletePayment(ctx context.Context, bookingID string) error
	FailPayment(ctx context.Context, bookingID string) error
}

// SnapshotStore caches the last observed booking per session. Every write
// is a full replace of the previous snapshot.
type SnapshotStore interface {
	SetSnapshot(ctx context.Context, sessionID string, booking *domain.Booking) error
	DeleteSnapshot(ctx context.Context, sessionID string) error
}

// TrackingLocker guards against duplicate tracking sessions for the same
// (user, booking) pair.
type TrackingLocker interface {
	AcquireTrackingLock(ctx context.Context, userID, bookingID string, ttl time.Duration) (bool, error)
	ReleaseTrackingLock(ctx context.Context, userID, bookingID string) error
}
