/*
Package history keeps an optional append-only SQLite log of resolved
versions, one row per invocation that produced a version. The log is a
build-audit aid; version resolution never depends on it.
*/
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Entry is one recorded version computation.
type Entry struct {
	// ComputedAt is the UTC timestamp of the computation, RFC 3339.
	ComputedAt string
	// RunID identifies the process invocation that produced the entry.
	RunID string
	// Descriptor is the raw describe output, empty when the version came
	// from the cache or an untagged repository.
	Descriptor string
	// Version is the resolved version string.
	Version string
	// Source is "git" for fresh computations and "cache" for fallbacks.
	Source string
}

// DB wraps the history database. Safe for concurrent use within one
// process.
type DB struct {
	mu    sync.Mutex
	conn  *sqlite.Conn
	runID string
}

// Open opens or creates a history database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	db := &DB{
		conn:  conn,
		runID: uuid.NewString(),
	}

	if err := db.ensureSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record appends one computation to the log.
func (db *DB) Record(rawDescriptor, version, source string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	err := sqlitex.Execute(db.conn, `
		INSERT INTO computed_versions (computed_at, run_id, descriptor, version, source)
		VALUES (?, ?, ?, ?, ?)
	`, &sqlitex.ExecOptions{
		Args: []any{
			time.Now().UTC().Format(time.RFC3339),
			db.runID,
			rawDescriptor,
			version,
			source,
		},
	})
	if err != nil {
		return fmt.Errorf("insert computed_versions: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (db *DB) Recent(n int) ([]Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []Entry
	err := sqlitex.Execute(db.conn, `
		SELECT computed_at, run_id, descriptor, version, source
		FROM computed_versions
		ORDER BY rowid DESC
		LIMIT ?
	`, &sqlitex.ExecOptions{
		Args: []any{n},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Entry{
				ComputedAt: stmt.ColumnText(0),
				RunID:      stmt.ColumnText(1),
				Descriptor: stmt.ColumnText(2),
				Version:    stmt.ColumnText(3),
				Source:     stmt.ColumnText(4),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query computed_versions: %w", err)
	}
	return out, nil
}

// ensureSchema creates the history table.
func (db *DB) ensureSchema() error {
	return sqlitex.ExecuteScript(db.conn, `
		CREATE TABLE IF NOT EXISTS computed_versions (
			computed_at TEXT NOT NULL,
			run_id      TEXT NOT NULL,
			descriptor  TEXT NOT NULL,
			version     TEXT NOT NULL,
			source      TEXT NOT NULL
		);
	`, nil)
}
