// Package store owns the SQLite corpus database: schema, row mapping, batch
// writers, checkpoints, and the metadata table the rest of the system reads.
package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store is a handle on the corpus database.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open opens (creating if needed) the corpus database at path and ensures the
// schema exists. WAL mode lets the ingest writer and read queries coexist;
// a single connection avoids SQLITE_BUSY between the batch writers.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle for packages that run their own SQL
// (fts, citegraph, impact).
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Analyze refreshes the query planner statistics for one table.
func (s *Store) Analyze(table string) error {
	if _, err := s.db.Exec("ANALYZE " + table); err != nil {
		return fmt.Errorf("analyzing %s: %w", table, err)
	}
	return nil
}
