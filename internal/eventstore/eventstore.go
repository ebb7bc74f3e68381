// Package eventstore keeps an append-only log of build lifecycle events.
//
// The log is observability-only: nothing in the build path reads it back.
// With the default ":memory:" database nothing persists across restarts.
package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// EventType classifies a build lifecycle event.
type EventType string

const (
	EventBuildStarted   EventType = "build_started"
	EventBuildSucceeded EventType = "build_succeeded"
	EventBuildFailed    EventType = "build_failed"
)

// Event is one recorded build lifecycle event.
type Event struct {
	ID        int64
	BuildID   string
	Type      EventType
	Timestamp time.Time
	Detail    string
}

// Store is a SQLite-backed event log.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates an event store. Use ":memory:" for an in-memory database or
// a file path for a persistent log.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS build_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_build_events_build_id ON build_events(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one event for a build.
func (s *Store) Append(ctx context.Context, buildID string, typ EventType, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_events (build_id, event_type, timestamp, detail) VALUES (?, ?, ?, ?)`,
		buildID, string(typ), time.Now().UnixNano(), detail)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ByBuild returns all events recorded for a build, oldest first.
func (s *Store) ByBuild(ctx context.Context, buildID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, event_type, timestamp, detail FROM build_events WHERE build_id = ? ORDER BY id`,
		buildID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var ts int64
		var typ string
		if err := rows.Scan(&e.ID, &e.BuildID, &typ, &ts, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = EventType(typ)
		e.Timestamp = time.Unix(0, ts)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Recent returns the newest events across all builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, event_type, timestamp, detail FROM build_events ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }
