package redis

import (
	"context"
	"time"

	"bookingwatch/internal/domain"
)

// SnapshotStoreInterface defines the interface for session snapshot caching.
type SnapshotStoreInterface interface {
	SetSnapshot(ctx context.Context, sessionID string, booking *domain.Booking) error
	GetSnapshot(ctx context.Context, sessionID string) (*domain.Booking, error)
	DeleteSnapshot(ctx context.Context, sessionID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireTrackingLock(ctx context.Context, userID, bookingID string, ttl time.Duration) (bool, error)
	ReleaseTrackingLock(ctx context.Context, userID, bookingID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ SnapshotStoreInterface = (*SnapshotStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
