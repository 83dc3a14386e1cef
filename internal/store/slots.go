package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SlotDB is the local key-value storage backing the engine: one logical
// slot for the encrypted behavior blob and one for key material. Writes
// are transactional upserts, so an overwrite is atomic and a reader never
// observes a partially written slot.
type SlotDB struct {
	db *sql.DB
}

// OpenSlots opens (or creates) the SQLite slot database at the given path
// and applies pragmas and schema.
func OpenSlots(path string) (*SlotDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SlotDB{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[SlotDB] Storage initialized: %s", path)
	return s, nil
}

// OpenMemorySlots opens an in-memory slot database for testing.
func OpenMemorySlots() (*SlotDB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}

	s := &SlotDB{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SlotDB) init() error {
	// WAL for crash consistency on the single local writer.
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := s.db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("set synchronous: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS slots (
			name       TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create slots table: %w", err)
	}
	return nil
}

// Get reads a slot. The second return reports whether the slot exists.
func (s *SlotDB) Get(name string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM slots WHERE name = ?", name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %s: %w", name, err)
	}
	return value, true, nil
}

// Put atomically overwrites a slot.
func (s *SlotDB) Put(name, value string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	query := `
		INSERT INTO slots (name, value, updated_at)
		VALUES (?, ?, CAST(strftime('%s', 'now') AS INTEGER))
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(query, name, value); err != nil {
		tx.Rollback()
		return fmt.Errorf("write slot %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot %s: %w", name, err)
	}
	return nil
}

// Delete removes a slot if present.
func (s *SlotDB) Delete(name string) error {
	if _, err := s.db.Exec("DELETE FROM slots WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete slot %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SlotDB) Close() error {
	return s.db.Close()
}
