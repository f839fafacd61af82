// Package citegraph builds the citation edge table from the reference lists
// stored on works.
package citegraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/matsen/oalex/internal/store"
)

// Builder scans works in rowid order and appends one edge per referenced ID.
type Builder struct {
	store *store.Store
	log   zerolog.Logger

	// CommitEvery bounds how many source works are processed per transaction;
	// the checkpoint advances with each commit.
	CommitEvery int
	// ScanWindow is the rowid range fetched per SELECT.
	ScanWindow int
}

// New returns a Builder with the default batch tuning.
func New(st *store.Store, log zerolog.Logger) *Builder {
	return &Builder{store: st, log: log, CommitEvery: 10000, ScanWindow: 50000}
}

type citingRow struct {
	ID             int64          `db:"id"`
	OpenAlexID     string         `db:"openalex_id"`
	Year           sql.NullInt64  `db:"year"`
	ReferencedJSON sql.NullString `db:"referenced_works_json"`
}

// Result summarizes a build run.
type Result struct {
	WorksScanned int64 `json:"works_scanned"`
	Edges        int64 `json:"edges"`
	Resumed      bool  `json:"resumed"`
}

// Build scans forward from the saved rowid high-water mark. Works with a
// null year carry no usable citing_year and are skipped; duplicate entries
// in a reference list produce duplicate edges, matching the source data.
// Each transaction commits a block of scanned works and saves the checkpoint
// inside the same transaction.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	last, err := b.store.CitationCheckpoint()
	if err != nil {
		return nil, err
	}
	maxID, err := b.store.MaxWorkRowID()
	if err != nil {
		return nil, err
	}

	res := &Result{Resumed: last > 0}
	started := time.Now()

	for last < maxID {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var rows []citingRow
		err := b.store.DB().Select(&rows, `
			SELECT id, openalex_id, year, referenced_works_json
			FROM works
			WHERE id > ? AND id <= ? AND referenced_works_json IS NOT NULL
			ORDER BY id`,
			last, last+int64(b.ScanWindow))
		if err != nil {
			return res, fmt.Errorf("scanning works after rowid %d: %w", last, err)
		}

		windowEnd := last + int64(b.ScanWindow)
		if windowEnd > maxID {
			windowEnd = maxID
		}

		if err := b.commitWindow(rows, windowEnd, res); err != nil {
			return res, err
		}
		last = windowEnd

		elapsed := time.Since(started).Seconds()
		perSec := 0.0
		if elapsed > 0 {
			perSec = float64(res.Edges) / elapsed
		}
		b.log.Info().Int64("rowid", last).Int64("of", maxID).
			Int64("edges", res.Edges).Float64("edges_per_sec", perSec).
			Msg("building citation graph")
	}

	// The metadata total accumulates across resumed runs.
	prev, err := b.store.GetMeta("total_citations")
	if err != nil {
		return res, err
	}
	total := res.Edges
	if n, err := strconv.ParseInt(prev, 10, 64); err == nil {
		total += n
	}
	if err := b.store.SetMeta("total_citations", strconv.FormatInt(total, 10)); err != nil {
		return res, err
	}
	return res, nil
}

func (b *Builder) commitWindow(rows []citingRow, windowEnd int64, res *Result) error {
	tx, err := b.store.DB().Beginx()
	if err != nil {
		return fmt.Errorf("beginning citation batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(
		"INSERT INTO citations (citing_id, cited_id, citing_year) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing citation insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		row := &rows[i]
		res.WorksScanned++
		if !row.Year.Valid || !row.ReferencedJSON.Valid {
			continue
		}
		var refs []string
		if err := json.Unmarshal([]byte(row.ReferencedJSON.String), &refs); err != nil {
			continue
		}
		for _, cited := range refs {
			if _, err := stmt.Exec(row.OpenAlexID, cited, row.Year.Int64); err != nil {
				return fmt.Errorf("inserting edge %s -> %s: %w", row.OpenAlexID, cited, err)
			}
			res.Edges++
		}
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO _citations_build_progress (id, last_rowid, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)`, windowEnd); err != nil {
		return fmt.Errorf("saving citation checkpoint: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing citation batch: %w", err)
	}
	return nil
}

// CreateIndexes builds the lookup indexes once the edge table is loaded.
func (b *Builder) CreateIndexes() error {
	b.log.Info().Msg("creating citation indexes")
	if err := b.store.CreateCitationIndexes(); err != nil {
		return err
	}
	return b.store.Analyze("citations")
}
