package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ShardKind selects which checkpoint table a loader reads and writes.
type ShardKind int

const (
	WorksShards ShardKind = iota
	SourcesShards
)

func (k ShardKind) table() string {
	if k == SourcesShards {
		return "_sources_build_progress"
	}
	return "_build_progress"
}

// CompletedShards returns the set of shard paths already fully loaded.
// Loaders call this once before the run and subtract it from the listing.
func (s *Store) CompletedShards(kind ShardKind) (map[string]bool, error) {
	var paths []string
	if err := s.db.Select(&paths, "SELECT file_path FROM "+kind.table()); err != nil {
		return nil, fmt.Errorf("reading %s: %w", kind.table(), err)
	}
	done := make(map[string]bool, len(paths))
	for _, p := range paths {
		done[p] = true
	}
	return done, nil
}

// MarkShardDone records a shard as fully loaded along with how many records
// it contributed. Called only after the shard's final batch has committed,
// so a crash between batch and checkpoint re-reads the shard and the
// idempotent upserts absorb the overlap.
func (s *Store) MarkShardDone(kind ShardKind, path string, records int) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO "+kind.table()+" (file_path, records_processed) VALUES (?, ?)",
		path, records)
	if err != nil {
		return fmt.Errorf("marking shard %s done: %w", path, err)
	}
	return nil
}

// CitationCheckpoint returns the rowid high-water mark of the citation build,
// or 0 when the build has never run.
func (s *Store) CitationCheckpoint() (int64, error) {
	var last int64
	err := s.db.Get(&last, "SELECT last_rowid FROM _citations_build_progress WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading citation checkpoint: %w", err)
	}
	return last, nil
}

// SaveCitationCheckpoint advances the citation build high-water mark.
func (s *Store) SaveCitationCheckpoint(lastRowID int64) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO _citations_build_progress (id, last_rowid, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)`, lastRowID)
	if err != nil {
		return fmt.Errorf("saving citation checkpoint: %w", err)
	}
	return nil
}

// GetMeta reads one _metadata value; missing keys return "".
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.Get(&value, "SELECT value FROM _metadata WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMeta writes one _metadata value.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO _metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)`, key, value)
	if err != nil {
		return fmt.Errorf("writing metadata %s: %w", key, err)
	}
	return nil
}
