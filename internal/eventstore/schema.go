package eventstore

// schemaVersion is the current schema version this binary expects.
const schemaVersion = 1

// migrations maps a schema version to the SQL executed to reach it from
// the previous version. Each entry runs inside its own transaction.
var migrations = map[int]string{
	1: `
	CREATE TABLE IF NOT EXISTS event_store_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hook_events (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id     TEXT NOT NULL,
		correlation_id TEXT NOT NULL DEFAULT '',
		hook_name      TEXT NOT NULL,
		timestamp_ns   INTEGER NOT NULL,
		execution_id   TEXT NOT NULL DEFAULT '',
		event_data     TEXT NOT NULL DEFAULT '{}',
		duration_ms    INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_hook_events_session
		ON hook_events (session_id);
	CREATE INDEX IF NOT EXISTS idx_hook_events_correlation
		ON hook_events (correlation_id);
	CREATE INDEX IF NOT EXISTS idx_hook_events_timestamp
		ON hook_events (timestamp_ns);
	CREATE INDEX IF NOT EXISTS idx_hook_events_hook_name
		ON hook_events (hook_name);
	`,
}
