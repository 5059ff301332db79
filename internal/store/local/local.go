// Package local is the device-resident fallback store. Each entity
// collection lives under a fixed key as one JSON-encoded array, mirroring
// the shape of the remote table, so records written offline can be
// replayed verbatim. State survives process restarts; there is no
// cross-process locking, which is acceptable for a single-kiosk device.
package local

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Collection keys. Fixed strings, one per entity mirror.
const (
	KeyTransactions = "efuel_transactions"
	KeyInventory    = "efuel_inventory"
	KeyExpenses     = "efuel_expenses"
	KeyDebts        = "efuel_debts"
	KeyEmployees    = "efuel_employees"
	KeyAttendance   = "efuel_attendance"
	KeyPayroll      = "efuel_payroll"
	KeyShifts       = "efuel_shifts"
	KeyRequests     = "efuel_requests"
	KeyAudit        = "efuel_audit"
	KeySettings     = "efuel_settings"
	KeyPricing      = "efuel_pricing"
	KeyUsers        = "efuel_users"
	KeySyncQueue    = "efuel_sync_queue"
)

type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the kiosk-local database file.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	// SQLite allows a single writer; the mutex above serializes our own
	// read-modify-write cycles on top of that.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			key     TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create collections table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Read unmarshals the collection stored under key into dest. A missing
// key leaves dest untouched, so callers start from their zero value.
func (s *Store) Read(key string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(key, dest)
}

// Write replaces the collection stored under key.
func (s *Store) Write(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, value)
}

// Mutate runs fn under the store lock with the current value of the
// collection and writes back whatever fn leaves in dest. It is the
// read-modify-write primitive every append/update path goes through.
func (s *Store) Mutate(key string, dest any, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.read(key, dest); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return s.write(key, dest)
}

func (s *Store) read(key string, dest any) error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM collections WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read collection %s: %w", key, err)
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("decode collection %s: %w", key, err)
	}
	return nil
}

func (s *Store) write(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO collections (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload
	`, key, payload)
	if err != nil {
		return fmt.Errorf("write collection %s: %w", key, err)
	}
	return nil
}
