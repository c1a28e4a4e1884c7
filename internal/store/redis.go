package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/metrics"
)

// snapshotTTL bounds how long an idle room's document survives. A room
// revisited within the window resumes from its last content instead of
// the welcome document.
const snapshotTTL = 24 * time.Hour

// RedisStore keeps snapshots as JSON values with a TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() {
	s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// snapshotKey returns the key for a room's document snapshot.
func snapshotKey(roomID string) string {
	return fmt.Sprintf("room:%s:snapshot", roomID)
}

// SaveSnapshot overwrites the room's snapshot and refreshes its TTL.
func (s *RedisStore) SaveSnapshot(ctx context.Context, roomID, code string) error {
	start := time.Now()
	defer func() { metrics.SnapshotLatency.Observe(time.Since(start).Seconds()) }()

	snap := Snapshot{
		RoomID:   roomID,
		Revision: ulid.Make().String(),
		Code:     code,
		SavedAt:  time.Now().UnixMilli(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, snapshotKey(roomID), data, snapshotTTL).Err()
}

// LoadSnapshot returns the room's snapshot, or nil if none exists.
func (s *RedisStore) LoadSnapshot(ctx context.Context, roomID string) (*Snapshot, error) {
	start := time.Now()
	defer func() { metrics.SnapshotLatency.Observe(time.Since(start).Seconds()) }()

	data, err := s.client.Get(ctx, snapshotKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
