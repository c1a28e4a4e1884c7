// Package store persists room document snapshots. Persistence is layered
// outside the sync core: the registry works the same with or without a
// store, and snapshot failures never surface to clients.
package store

import "context"

// Snapshot is the last committed document of a room as held by a store.
type Snapshot struct {
	RoomID   string `json:"room_id"`
	Revision string `json:"revision"` // ULID, monotonic per save
	Code     string `json:"code"`
	SavedAt  int64  `json:"saved_at"` // Unix ms
}

// SnapshotStore is implemented by the Redis, PostgreSQL and SQLite
// backends. SaveSnapshot overwrites any previous snapshot for the room;
// LoadSnapshot returns nil when the room has none.
type SnapshotStore interface {
	Close()
	Ping(ctx context.Context) error
	SaveSnapshot(ctx context.Context, roomID, code string) error
	LoadSnapshot(ctx context.Context, roomID string) (*Snapshot, error)
}
