// Package fts maintains and queries the FTS5 full-text index over works.
//
// The index is an external-content table: FTS5 stores only the inverted
// index and reads row text from works by rowid, roughly halving disk use.
// Triggers keep it consistent with row-level changes; bulk loads instead
// drop the index, load works, then Populate.
package fts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/matsen/oalex/internal/corpus"
	"github.com/matsen/oalex/internal/store"
)

// Column names must match the works columns FTS5 reads through the
// content= option. authors_json is indexed as-is: unicode61 treats the JSON
// punctuation as separators, so author names stay searchable.
const createSQL = `
CREATE VIRTUAL TABLE works_fts USING fts5(
    openalex_id UNINDEXED,
    title,
    abstract,
    authors_json,
    content='works',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER works_fts_ai AFTER INSERT ON works BEGIN
    INSERT INTO works_fts(rowid, openalex_id, title, abstract, authors_json)
    VALUES (new.id, new.openalex_id, new.title, new.abstract, new.authors_json);
END;

CREATE TRIGGER works_fts_ad AFTER DELETE ON works BEGIN
    INSERT INTO works_fts(works_fts, rowid, openalex_id, title, abstract, authors_json)
    VALUES ('delete', old.id, old.openalex_id, old.title, old.abstract, old.authors_json);
END;

CREATE TRIGGER works_fts_au AFTER UPDATE ON works BEGIN
    INSERT INTO works_fts(works_fts, rowid, openalex_id, title, abstract, authors_json)
    VALUES ('delete', old.id, old.openalex_id, old.title, old.abstract, old.authors_json);
    INSERT INTO works_fts(rowid, openalex_id, title, abstract, authors_json)
    VALUES (new.id, new.openalex_id, new.title, new.abstract, new.authors_json);
END;
`

const dropSQL = `
DROP TRIGGER IF EXISTS works_fts_ai;
DROP TRIGGER IF EXISTS works_fts_ad;
DROP TRIGGER IF EXISTS works_fts_au;
DROP TABLE IF EXISTS works_fts;
`

// Index wraps the store handle with FTS maintenance and search.
type Index struct {
	store *store.Store
	log   zerolog.Logger
}

// New returns an Index over st.
func New(st *store.Store, log zerolog.Logger) *Index {
	return &Index{store: st, log: log}
}

// Create drops any existing index and recreates the empty table plus the
// consistency triggers.
func (x *Index) Create() error {
	if _, err := x.store.DB().Exec(dropSQL); err != nil {
		return fmt.Errorf("dropping fts index: %w", err)
	}
	if _, err := x.store.DB().Exec(createSQL); err != nil {
		return fmt.Errorf("creating fts index: %w", err)
	}
	return nil
}

// Populate fills the index from works in rowid-windowed batches, each its own
// transaction, and records the indexed total in _metadata.
func (x *Index) Populate(batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 50000
	}
	maxID, err := x.store.MaxWorkRowID()
	if err != nil {
		return 0, err
	}

	var indexed int64
	started := time.Now()
	for lo := int64(0); lo < maxID; lo += int64(batchSize) {
		res, err := x.store.DB().Exec(`
			INSERT INTO works_fts(rowid, openalex_id, title, abstract, authors_json)
			SELECT id, openalex_id, title, abstract, authors_json
			FROM works WHERE id > ? AND id <= ?`,
			lo, lo+int64(batchSize))
		if err != nil {
			return indexed, fmt.Errorf("indexing works rowid > %d: %w", lo, err)
		}
		n, _ := res.RowsAffected()
		indexed += n

		elapsed := time.Since(started).Seconds()
		perSec := 0.0
		if elapsed > 0 {
			perSec = float64(indexed) / elapsed
		}
		x.log.Info().Int64("indexed", indexed).Int64("of", maxID).
			Float64("rows_per_sec", perSec).Msg("indexing")
	}

	if err := x.store.SetMeta("fts_total_indexed", strconv.FormatInt(indexed, 10)); err != nil {
		return indexed, err
	}
	return indexed, nil
}

var (
	hyphenated   = regexp.MustCompile(`\w+-\w+`)
	specialChars = regexp.MustCompile(`[/\\@#$%^&]`)
)

// SanitizeQuery prepares user text for FTS5 MATCH. An explicitly quoted
// phrase passes through untouched. Queries containing hyphenated tokens or
// characters FTS5 would parse as syntax get each whitespace token quoted as
// a phrase, which keeps "state-of-the-art" matching the tokenizer's view of
// the indexed text instead of raising a syntax error.
func SanitizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if len(query) >= 2 && strings.HasPrefix(query, `"`) && strings.HasSuffix(query, `"`) {
		return query
	}
	if !hyphenated.MatchString(query) && !specialChars.MatchString(query) {
		return query
	}
	tokens := strings.Fields(query)
	for i, t := range tokens {
		tokens[i] = `"` + strings.ReplaceAll(t, `"`, "") + `"`
	}
	return strings.Join(tokens, " ")
}

// Count returns the number of works matching query.
func (x *Index) Count(query string) (int, error) {
	var n int
	err := x.store.DB().Get(&n,
		"SELECT COUNT(*) FROM works_fts WHERE works_fts MATCH ?", SanitizeQuery(query))
	if err != nil {
		return 0, fmt.Errorf("counting matches for %q: %w", query, err)
	}
	return n, nil
}

// SearchIDs returns just the matching OpenAlex IDs in relevance order.
func (x *Index) SearchIDs(query string, limit, offset int) ([]string, error) {
	var ids []string
	err := x.store.DB().Select(&ids, `
		SELECT openalex_id FROM works_fts
		WHERE works_fts MATCH ? ORDER BY rank LIMIT ? OFFSET ?`,
		SanitizeQuery(query), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("searching ids for %q: %w", query, err)
	}
	return ids, nil
}

// Search runs a ranked full-text query and returns one page of full works
// plus the total match count.
func (x *Index) Search(query string, limit, offset int) (*corpus.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	started := time.Now()

	total, err := x.Count(query)
	if err != nil {
		return nil, err
	}

	ids, err := x.SearchIDs(query, limit, offset)
	if err != nil {
		return nil, err
	}

	works := make([]corpus.Work, 0, len(ids))
	for _, id := range ids {
		w, err := x.store.GetWork(id)
		if err != nil {
			return nil, err
		}
		if w != nil {
			works = append(works, *w)
		}
	}

	return &corpus.SearchResult{
		Works:     works,
		Total:     total,
		Query:     query,
		ElapsedMS: float64(time.Since(started).Microseconds()) / 1000.0,
	}, nil
}
