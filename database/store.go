// Package database persists agent suggestions, performance samples, alpha
// discoveries, strategic decisions and feedback in SQLite.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// Store manages the SQLite database for agent records
type Store struct {
	db       *sql.DB
	validate *validator.Validate
	now      func() time.Time
}

// Open creates or opens the database at dbPath and ensures the schema
func Open(dbPath string) (*Store, error) {
	if err := ensureDir(filepath.Dir(dbPath)); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{
		db:       db,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS suggestions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		type TEXT NOT NULL,
		data TEXT,
		confidence REAL NOT NULL,
		urgency TEXT NOT NULL,
		rationale TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL,
		reviewed_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS agent_performance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		agent_id TEXT NOT NULL,
		metric TEXT NOT NULL,
		value REAL NOT NULL,
		context TEXT,
		recorded_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alpha_discoveries (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		expected_value REAL NOT NULL,
		confidence REAL NOT NULL,
		timeframe TEXT,
		data TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		discovered_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS strategic_decisions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		decision_type TEXT NOT NULL,
		regime TEXT,
		strategy TEXT,
		rationale TEXT,
		confidence REAL NOT NULL,
		expected_impact REAL,
		suggestion_ids TEXT,
		data TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		suggestion_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		score REAL NOT NULL,
		comment TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (suggestion_id) REFERENCES suggestions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_suggestions_agent ON suggestions(agent_id);
	CREATE INDEX IF NOT EXISTS idx_suggestions_status ON suggestions(status);
	CREATE INDEX IF NOT EXISTS idx_performance_agent_metric ON agent_performance(agent_id, metric);
	CREATE INDEX IF NOT EXISTS idx_discoveries_symbol ON alpha_discoveries(symbol);
	CREATE INDEX IF NOT EXISTS idx_discoveries_kind ON alpha_discoveries(kind);
	CREATE INDEX IF NOT EXISTS idx_decisions_created ON strategic_decisions(created_at);
	CREATE INDEX IF NOT EXISTS idx_feedback_suggestion ON feedback(suggestion_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_agent ON feedback(agent_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) check(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	return nil
}

// marshalJSON encodes optional JSON columns; nil maps become "{}"
func marshalJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json column: %w", err)
	}
	if string(data) == "null" {
		return "{}", nil
	}
	return string(data), nil
}

func unmarshalMap(raw sql.NullString) map[string]interface{} {
	m := make(map[string]interface{})
	if raw.Valid && raw.String != "" {
		_ = json.Unmarshal([]byte(raw.String), &m)
	}
	return m
}

func limitClause(query string, args []interface{}, limit int) (string, []interface{}) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return query, args
}

// ensureDir creates dir when it is not the working directory
func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return nil
}
