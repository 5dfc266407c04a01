// Package eventstore persists every hook invocation as an append-only row
// in a WAL-mode SQLite database, and coordinates the pre/post timing join
// that spans two separate process invocations.
package eventstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.
)

// Store wraps a SQLite database connection holding the hook event log.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath with WAL mode and a
// 5-second busy timeout, then runs any pending migrations.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("check journal mode: %w", err)
	}
	if journalMode != "wal" {
		_ = db.Close()
		return nil, fmt.Errorf("expected WAL journal mode, got %q", journalMode)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct queries. Use sparingly;
// prefer adding methods to Store.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EventsCount returns the number of rows recorded in hook_events.
func (s *Store) EventsCount() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM hook_events").Scan(&count)
	return count, err
}

// Log appends a single hook event row. eventData is marshaled with
// sorted keys so that downstream readers get deterministic projections.
// durationMs is nil when no timing data is available for this event.
func (s *Store) Log(sessionID, correlationID, hookName string, timestampNs int64, executionID string, eventData map[string]any, durationMs *int64) error {
	payload, err := marshalSorted(eventData)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO hook_events (session_id, correlation_id, hook_name, timestamp_ns, execution_id, event_data, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, correlationID, hookName, timestampNs, executionID, payload, durationMs,
	)
	return err
}

// EventRow is a single hook_events row as read back for queries and tests.
type EventRow struct {
	ID            int64
	SessionID     string
	CorrelationID string
	HookName      string
	TimestampNs   int64
	ExecutionID   string
	EventData     map[string]any
	DurationMs    *int64
}

// QueryBySession returns every event recorded for a session, oldest first.
func (s *Store) QueryBySession(sessionID string) ([]EventRow, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, correlation_id, hook_name, timestamp_ns, execution_id, event_data, duration_ms
		 FROM hook_events WHERE session_id = ? ORDER BY timestamp_ns ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		var raw string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.CorrelationID, &r.HookName, &r.TimestampNs, &r.ExecutionID, &raw, &r.DurationMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &r.EventData); err != nil {
			return nil, fmt.Errorf("unmarshal event_data for row %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// marshalSorted encodes m as JSON. encoding/json already emits map keys in
// sorted order, which is what gives repeated writes of logically-identical
// data byte-identical output.
func marshalSorted(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
