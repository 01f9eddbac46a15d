// Package storage provides the relational side of the memory layer:
// the append-only change-history ledger and the per-owner profile rows.
// Backed by SQLite via modernc.org/sqlite (pure Go, no cgo).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("row not found")

// HistoryEntry mirrors core.HistoryEntry at the storage boundary.
type HistoryEntry struct {
	ID        string
	MemoryID  string
	PrevValue *string
	NewValue  *string
	Event     string
	CreatedAt string
	UpdatedAt string
	IsDeleted bool
}

// SQLiteManager owns the history and profile tables.
type SQLiteManager struct {
	db *sql.DB
}

// New creates/opens the database at path. Use ":memory:" for tests.
func New(path string) (*SQLiteManager, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single shared connection avoids writer lock contention with
	// SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	m := &SQLiteManager{db: db}
	if err := m.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func (m *SQLiteManager) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS history (
			id         TEXT PRIMARY KEY,
			memory_id  TEXT NOT NULL,
			prev_value TEXT,
			new_value  TEXT,
			event      TEXT NOT NULL,
			created_at TEXT,
			updated_at TEXT,
			is_deleted INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_memory_id ON history(memory_id);`,
		`CREATE TABLE IF NOT EXISTS user_profile (
			owner_id     TEXT PRIMARY KEY,
			profile      TEXT,
			created_time TEXT NOT NULL,
			updated_time TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (m *SQLiteManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// AddHistory appends one ledger row. History rows are never updated
// or deleted afterwards, except by Reset.
func (m *SQLiteManager) AddHistory(ctx context.Context, memoryID string, prevValue, newValue *string, event, createdAt, updatedAt string, isDeleted bool) error {
	deleted := 0
	if isDeleted {
		deleted = 1
	}
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO history (id, memory_id, prev_value, new_value, event, created_at, updated_at, is_deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), memoryID, prevValue, newValue, event, createdAt, updatedAt, deleted,
	)
	if err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	return nil
}

// GetHistory returns all ledger rows for a memory, oldest first.
func (m *SQLiteManager) GetHistory(ctx context.Context, memoryID string) ([]HistoryEntry, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, memory_id, prev_value, new_value, event, created_at, updated_at, is_deleted
		 FROM history WHERE memory_id = ? ORDER BY updated_at ASC, rowid ASC`,
		memoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var deleted int
		var createdAt, updatedAt sql.NullString
		if err := rows.Scan(&e.ID, &e.MemoryID, &e.PrevValue, &e.NewValue, &e.Event, &createdAt, &updatedAt, &deleted); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.CreatedAt = createdAt.String
		e.UpdatedAt = updatedAt.String
		e.IsDeleted = deleted != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetProfile returns the raw profile JSON for an owner. The boolean
// reports whether a row exists.
func (m *SQLiteManager) GetProfile(ctx context.Context, ownerID string) (string, bool, error) {
	var profile sql.NullString
	err := m.db.QueryRowContext(ctx,
		`SELECT profile FROM user_profile WHERE owner_id = ?`, ownerID,
	).Scan(&profile)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get profile: %w", err)
	}
	return profile.String, true, nil
}

// InsertProfile creates the owner's profile row.
func (m *SQLiteManager) InsertProfile(ctx context.Context, ownerID, profileJSON, now string) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO user_profile (owner_id, profile, created_time, updated_time) VALUES (?, ?, ?, ?)`,
		ownerID, profileJSON, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// UpdateProfile replaces the owner's profile row in place.
func (m *SQLiteManager) UpdateProfile(ctx context.Context, ownerID, profileJSON, now string) error {
	res, err := m.db.ExecContext(ctx,
		`UPDATE user_profile SET profile = ?, updated_time = ? WHERE owner_id = ?`,
		profileJSON, now, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset drops all history and profile rows.
func (m *SQLiteManager) Reset(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, `DELETE FROM user_profile`); err != nil {
		return fmt.Errorf("reset profiles: %w", err)
	}
	return nil
}
