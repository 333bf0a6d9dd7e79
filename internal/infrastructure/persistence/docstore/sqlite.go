package docstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Schema for the embedded KV medium: one row per storage key.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
    key         TEXT PRIMARY KEY,
    payload     BLOB NOT NULL,
    updated_at  INTEGER NOT NULL
);
`

// SQLiteMedium persists the document in an embedded SQLite database under
// the fixed storage key. SQLite's transactional writes provide the
// crash-atomicity the Medium contract requires.
type SQLiteMedium struct {
	db  *sql.DB
	key string
}

// OpenSQLiteMedium opens or creates the database at the given path.
func OpenSQLiteMedium(path string) (*SQLiteMedium, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteMedium{db: db, key: StorageKey}, nil
}

// Load implements Medium.
func (m *SQLiteMedium) Load() ([]byte, error) {
	var payload []byte
	err := m.db.QueryRow(`SELECT payload FROM documents WHERE key = ?`, m.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document row: %w", err)
	}
	return payload, nil
}

// Store implements Medium.
func (m *SQLiteMedium) Store(data []byte) error {
	_, err := m.db.Exec(`
		INSERT INTO documents (key, payload, updated_at)
		VALUES (?, ?, strftime('%s','now'))
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		m.key, data)
	if err != nil {
		return fmt.Errorf("store document row: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (m *SQLiteMedium) Close() error {
	return m.db.Close()
}
