package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireTrackingLock attempts to acquire the tracking lock for a
// (user, booking) pair, so the same booking never gets two concurrent
// tracking sessions for one user. Returns true if acquired, false if
// already held.
func (s *LockStore) AcquireTrackingLock(ctx context.Context, userID, bookingID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:tracking:%s:%s", userID, bookingID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseTrackingLock releases the tracking lock for a (user, booking) pair.
func (s *LockStore) ReleaseTrackingLock(ctx context.Context, userID, bookingID string) error {
	key := fmt.Sprintf("lock:tracking:%s:%s", userID, bookingID)

	return s.client.Del(ctx, key).Err()
}
