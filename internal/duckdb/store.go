// Package duckdb records filtering runs in a DuckDB database so past
// settings and totals can be listed and compared.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store is an open run history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the history database at path, creating the file, its parent
// directory and the filter_runs table as needed. An empty path keeps the
// history in memory for the lifetime of the Store.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create filter_runs in %s: %w", path, err)
	}

	return s, nil
}

// Close releases the database; recorded runs stay on disk.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates filter_runs on first use.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS filter_runs (
		run_id VARCHAR PRIMARY KEY,
		started_at TIMESTAMP,
		finished_at TIMESTAMP,
		input_path VARCHAR,
		input_size BIGINT,
		input_modtime TIMESTAMP,
		output_path VARCHAR,
		min_depth BIGINT,
		max_depth BIGINT,
		total BIGINT,
		passed BIGINT,
		failed BIGINT,
		truncated BOOLEAN
	)`)
	return err
}
