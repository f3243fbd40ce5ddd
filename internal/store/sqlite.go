// Package store provides the SQLite-backed session persistence layer.
// Sessions are keyed by (agent_key, user_id) and stored as JSON payloads;
// the schema carries timestamps so stale sessions can be swept.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"bizpilot/internal/logging"
	"bizpilot/internal/types"
)

// schema is applied on open. CREATE IF NOT EXISTS keeps reopening cheap.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    agent_key  TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    payload    TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (agent_key, user_id)
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
`

// SQLiteStore persists session context in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open creates or opens the session database at path, creating parent
// directories as needed.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent sessions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply session schema: %w", err)
	}

	logging.Store("session database open at %s", path)
	return &SQLiteStore{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the stored context for (agent, userID), or nil when none
// exists.
func (s *SQLiteStore) Load(ctx context.Context, agent types.AgentDomain, userID string) (*types.SessionContext, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE agent_key = ? AND user_id = ?`,
		string(agent), userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sc types.SessionContext
	if err := json.Unmarshal([]byte(payload), &sc); err != nil {
		// A corrupt payload is treated as a missing session rather than a
		// hard failure; the conversation starts fresh.
		logging.StoreWarn("discarding corrupt session payload for %s:%s: %v", agent, userID, err)
		return nil, nil
	}
	return &sc, nil
}

// Save upserts the session context under its (agent_key, user_id) key.
func (s *SQLiteStore) Save(ctx context.Context, sc *types.SessionContext) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (agent_key, user_id, payload, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(agent_key, user_id) DO UPDATE SET
    payload = excluded.payload,
    updated_at = excluded.updated_at`,
		string(sc.AgentKey), sc.UserID, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the stored context for (agent, userID). Clearing a missing
// key is not an error.
func (s *SQLiteStore) Clear(ctx context.Context, agent types.AgentDomain, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE agent_key = ? AND user_id = ?`,
		string(agent), userID)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Sweep deletes sessions not updated within ttl and returns how many were
// removed. The orchestration layer never calls this; it is housekeeping for
// the CLI host.
func (s *SQLiteStore) Sweep(ctx context.Context, ttl time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ?`, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Store("swept %d expired sessions", n)
	}
	return n, nil
}
