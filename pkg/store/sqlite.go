package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	name       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteBackend keeps the alert list as a single named blob in SQLite
type SQLiteBackend struct {
	db   *sql.DB
	name string
}

// OpenSQLite opens (or creates) the database at path
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	return &SQLiteBackend{db: db, name: AlertsKey}, nil
}

// Load reads the alert blob, returning nil when none is stored
func (sb *SQLiteBackend) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := sb.db.QueryRowContext(ctx,
		`SELECT payload FROM resources WHERE name = ?`, sb.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sb.name, err)
	}
	return payload, nil
}

// Save upserts the alert blob
func (sb *SQLiteBackend) Save(ctx context.Context, payload []byte) error {
	_, err := sb.db.ExecContext(ctx, `
INSERT INTO resources (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		sb.name, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", sb.name, err)
	}
	return nil
}

// Close closes the database
func (sb *SQLiteBackend) Close() error {
	return sb.db.Close()
}
