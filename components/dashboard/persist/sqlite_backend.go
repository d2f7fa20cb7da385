package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend keeps state blobs in a local SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

type sqliteMigration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

var sqliteMigrations = []sqliteMigration{
	{Version: 1, Name: "state_kv", Apply: func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS state_kv (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`)
		return err
	}},
}

// OpenSQLiteBackend opens (or creates) the database at path and applies
// pending schema migrations. Use ":memory:" for an ephemeral database.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path == "" {
		return nil, errors.New("persist: sqlite path is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("persist: open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	backend := &SQLiteBackend{db: db}
	if err := backend.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return backend, nil
}

func (b *SQLiteBackend) migrate() error {
	if _, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("persist: create schema_migrations: %w", err)
	}
	for _, m := range sqliteMigrations {
		var count int
		if err := b.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&count); err != nil {
			return fmt.Errorf("persist: check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}
		if err := b.applyMigration(m); err != nil {
			return fmt.Errorf("persist: apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func (b *SQLiteBackend) applyMigration(m sqliteMigration) error {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	if err := m.Apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the blob stored under key.
func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, "SELECT value FROM state_kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("persist: select %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set upserts the blob for key.
func (b *SQLiteBackend) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO state_kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("persist: upsert %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, "DELETE FROM state_kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("persist: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
