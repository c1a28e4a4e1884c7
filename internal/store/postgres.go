package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/metrics"
)

// PostgresStore keeps snapshots in a single upsert-by-room table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the snapshots table if it doesn't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			room_id  TEXT PRIMARY KEY,
			revision TEXT NOT NULL,
			code     TEXT NOT NULL,
			saved_at BIGINT NOT NULL
		)
	`)
	return err
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveSnapshot upserts the room's snapshot.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, roomID, code string) error {
	start := time.Now()
	defer func() { metrics.SnapshotLatency.Observe(time.Since(start).Seconds()) }()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO snapshots (room_id, revision, code, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_id) DO UPDATE
		SET revision = EXCLUDED.revision, code = EXCLUDED.code, saved_at = EXCLUDED.saved_at
	`, roomID, ulid.Make().String(), code, time.Now().UnixMilli())
	return err
}

// LoadSnapshot returns the room's snapshot, or nil if none exists.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, roomID string) (*Snapshot, error) {
	start := time.Now()
	defer func() { metrics.SnapshotLatency.Observe(time.Since(start).Seconds()) }()

	snap := &Snapshot{}
	err := s.pool.QueryRow(ctx, `
		SELECT room_id, revision, code, saved_at
		FROM snapshots WHERE room_id = $1
	`, roomID).Scan(&snap.RoomID, &snap.Revision, &snap.Code, &snap.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return snap, nil
}
