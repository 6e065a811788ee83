package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"bookingwatch/internal/domain"
)

// SnapshotStore caches the last observed booking per session in Redis.
// Each write fully replaces the previous snapshot; nothing is merged, so
// "most recent successful fetch wins" holds across gateway restarts too.
type SnapshotStore struct {
	client *redis.Client
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// SnapshotTTL keeps snapshots a little longer than the slowest cadence so
// a reconnecting frontend can render stale-but-recent state immediately.
const SnapshotTTL = 60 * time.Second

const snapshotPrefix = "snapshot:session:"

// SetSnapshot stores the latest observed booking for a session.
func (s *SnapshotStore) SetSnapshot(ctx context.Context, sessionID string, booking *domain.Booking) error {
	data, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotPrefix+sessionID, data, SnapshotTTL).Err()
}

// GetSnapshot retrieves the latest observed booking for a session.
// Returns (nil, nil) on a cache miss.
func (s *SnapshotStore) GetSnapshot(ctx context.Context, sessionID string) (*domain.Booking, error) {
	data, err := s.client.Get(ctx, snapshotPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var booking domain.Booking
	if err := json.Unmarshal(data, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// DeleteSnapshot removes a session's snapshot.
func (s *SnapshotStore) DeleteSnapshot(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, snapshotPrefix+sessionID).Err()
}
