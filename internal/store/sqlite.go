package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/metrics"
)

// SQLiteStore is the zero-infrastructure snapshot backend for development
// and single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file. An empty dbPath
// defaults to "./data/codecollab.db"; ":memory:" works for tests.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/codecollab.db"
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the snapshots table if it doesn't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			room_id  TEXT PRIMARY KEY,
			revision TEXT NOT NULL,
			code     TEXT NOT NULL,
			saved_at INTEGER NOT NULL
		)
	`)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveSnapshot upserts the room's snapshot.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, roomID, code string) error {
	start := time.Now()
	defer func() { metrics.SnapshotLatency.Observe(time.Since(start).Seconds()) }()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (room_id, revision, code, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (room_id) DO UPDATE
		SET revision = excluded.revision, code = excluded.code, saved_at = excluded.saved_at
	`, roomID, ulid.Make().String(), code, time.Now().UnixMilli())
	return err
}

// LoadSnapshot returns the room's snapshot, or nil if none exists.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, roomID string) (*Snapshot, error) {
	start := time.Now()
	defer func() { metrics.SnapshotLatency.Observe(time.Since(start).Seconds()) }()

	snap := &Snapshot{}
	err := s.db.QueryRowContext(ctx, `
		SELECT room_id, revision, code, saved_at
		FROM snapshots WHERE room_id = ?
	`, roomID).Scan(&snap.RoomID, &snap.Revision, &snap.Code, &snap.SavedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return snap, nil
}
