package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps sensor definitions in a sqlite database. The position
// column preserves registration order across store/load round-trips; the
// record count is implicit in the rows.
type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the database at path. Call Init
// before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the schema if needed.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sensors (
			position INTEGER PRIMARY KEY,
			id INTEGER NOT NULL,
			pin INTEGER NOT NULL,
			pullup INTEGER NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	s.db = db
	return nil
}

// LoadAll returns all stored definitions in stored order.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]Definition, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, pin, pullup FROM sensors ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var d Definition
		var pullup int
		if err := rows.Scan(&d.ID, &d.Pin, &pullup); err != nil {
			return nil, err
		}
		d.Pullup = pullup != 0
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// StoreAll replaces the stored set with defs, in order. All-or-nothing: a
// failed write leaves the previous contents intact.
func (s *SQLiteStore) StoreAll(ctx context.Context, defs []Definition) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sensors`); err != nil {
		return err
	}
	for i, d := range defs {
		pullup := 0
		if d.Pullup {
			pullup = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sensors (position, id, pin, pullup) VALUES (?, ?, ?, ?)`,
			i, d.ID, d.Pin, pullup)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("store not initialized")
	}
	return s.db, nil
}
