// Package journal provides a SQLite-backed log of catalog operations.
//
// Catalog mutations are multi-step and not atomic: a failure between the
// index write and the content write leaves the remote store in a known but
// inconsistent state. The journal records the terminal step of every
// mutating operation so those states can be found and reconciled later.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS operations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	op         TEXT NOT NULL,
	path       TEXT NOT NULL DEFAULT '',
	step       TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_operations_step ON operations(step);
`

// DB wraps a sql.DB with journal-specific operations.
type DB struct {
	conn *sql.DB
}

// Entry is one journaled operation outcome.
type Entry struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Path      string    `json:"path"`
	Step      string    `json:"step"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record appends one operation outcome.
func (db *DB) Record(op, path, step, errText string) error {
	_, err := db.conn.Exec(`
		INSERT INTO operations (op, path, step, error, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, op, path, step, errText, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (db *DB) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, op, path, step, error, created_at
		FROM operations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Op, &e.Path, &e.Step, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Failures returns entries whose terminal step is not "done", oldest first.
// These are the operations that may have left the store inconsistent.
func (db *DB) Failures() ([]Entry, error) {
	rows, err := db.conn.Query(`
		SELECT id, op, path, step, error, created_at
		FROM operations
		WHERE step != 'done'
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("journal: failures: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Op, &e.Path, &e.Step, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
