package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/matsen/oalex/internal/corpus"
)

// workRow mirrors the works table. List-valued fields are stored as JSON text
// columns; pointers carry SQL NULLs.
type workRow struct {
	ID                  int64   `db:"id"`
	OpenAlexID          string  `db:"openalex_id"`
	DOI                 *string `db:"doi"`
	Title               *string `db:"title"`
	Abstract            *string `db:"abstract"`
	Year                *int    `db:"year"`
	PublicationDate     *string `db:"publication_date"`
	Type                *string `db:"type"`
	Language            *string `db:"language"`
	Source              *string `db:"source"`
	SourceID            *string `db:"source_id"`
	ISSN                *string `db:"issn"`
	Volume              *string `db:"volume"`
	Issue               *string `db:"issue"`
	FirstPage           *string `db:"first_page"`
	LastPage            *string `db:"last_page"`
	Publisher           *string `db:"publisher"`
	CitedByCount        int     `db:"cited_by_count"`
	IsOA                bool    `db:"is_oa"`
	OAStatus            *string `db:"oa_status"`
	OAURL               *string `db:"oa_url"`
	AuthorsJSON         *string `db:"authors_json"`
	ConceptsJSON        *string `db:"concepts_json"`
	TopicsJSON          *string `db:"topics_json"`
	ReferencedWorksJSON *string `db:"referenced_works_json"`
	RefCount            int     `db:"ref_count"`
	CreatedAt           string  `db:"created_at"`
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func jsonOrNil(v any, n int) *string {
	if n == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func rowFromWork(w *corpus.Work) workRow {
	return workRow{
		OpenAlexID:          w.OpenAlexID,
		DOI:                 nullStr(w.DOI),
		Title:               nullStr(w.Title),
		Abstract:            w.Abstract,
		Year:                nullInt(w.Year),
		PublicationDate:     nullStr(w.PublicationDate),
		Type:                nullStr(w.Type),
		Language:            nullStr(w.Language),
		Source:              nullStr(w.Source),
		SourceID:            nullStr(w.SourceID),
		ISSN:                nullStr(w.ISSN),
		Volume:              nullStr(w.Volume),
		Issue:               nullStr(w.Issue),
		FirstPage:           nullStr(w.FirstPage),
		LastPage:            nullStr(w.LastPage),
		Publisher:           nullStr(w.Publisher),
		CitedByCount:        w.CitedByCount,
		IsOA:                w.IsOA,
		OAStatus:            nullStr(w.OAStatus),
		OAURL:               nullStr(w.OAURL),
		AuthorsJSON:         jsonOrNil(w.Authors, len(w.Authors)),
		ConceptsJSON:        jsonOrNil(w.Concepts, len(w.Concepts)),
		TopicsJSON:          jsonOrNil(w.Topics, len(w.Topics)),
		ReferencedWorksJSON: jsonOrNil(w.ReferencedWorks, len(w.ReferencedWorks)),
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func (r *workRow) toWork() corpus.Work {
	w := corpus.Work{
		OpenAlexID:      r.OpenAlexID,
		DOI:             deref(r.DOI),
		Title:           deref(r.Title),
		Abstract:        r.Abstract,
		Year:            derefInt(r.Year),
		PublicationDate: deref(r.PublicationDate),
		Type:            deref(r.Type),
		Language:        deref(r.Language),
		Source:          deref(r.Source),
		SourceID:        deref(r.SourceID),
		ISSN:            deref(r.ISSN),
		Volume:          deref(r.Volume),
		Issue:           deref(r.Issue),
		FirstPage:       deref(r.FirstPage),
		LastPage:        deref(r.LastPage),
		Publisher:       deref(r.Publisher),
		CitedByCount:    r.CitedByCount,
		IsOA:            r.IsOA,
		OAStatus:        deref(r.OAStatus),
		OAURL:           deref(r.OAURL),
		RefCount:        r.RefCount,
	}
	if r.AuthorsJSON != nil {
		json.Unmarshal([]byte(*r.AuthorsJSON), &w.Authors)
	}
	if r.ConceptsJSON != nil {
		json.Unmarshal([]byte(*r.ConceptsJSON), &w.Concepts)
	}
	if r.TopicsJSON != nil {
		json.Unmarshal([]byte(*r.TopicsJSON), &w.Topics)
	}
	if r.ReferencedWorksJSON != nil {
		json.Unmarshal([]byte(*r.ReferencedWorksJSON), &w.ReferencedWorks)
	}
	return w
}

const insertWorkSQL = `
INSERT OR IGNORE INTO works (
    openalex_id, doi, title, abstract, year, publication_date, type, language,
    source, source_id, issn, volume, issue, first_page, last_page, publisher,
    cited_by_count, is_oa, oa_status, oa_url,
    authors_json, concepts_json, topics_json, referenced_works_json
) VALUES (
    :openalex_id, :doi, :title, :abstract, :year, :publication_date, :type, :language,
    :source, :source_id, :issn, :volume, :issue, :first_page, :last_page, :publisher,
    :cited_by_count, :is_oa, :oa_status, :oa_url,
    :authors_json, :concepts_json, :topics_json, :referenced_works_json
)`

// InsertWorks writes a batch in one transaction with insert-if-absent
// semantics, so re-reading a partially processed shard is harmless. Returns
// the number of rows actually inserted.
func (s *Store) InsertWorks(works []corpus.Work) (int, error) {
	if len(works) == 0 {
		return 0, nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("beginning works batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(insertWorkSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing works insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range works {
		row := rowFromWork(&works[i])
		res, err := stmt.Exec(row)
		if err != nil {
			return 0, fmt.Errorf("inserting work %s: %w", works[i].OpenAlexID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing works batch: %w", err)
	}
	return inserted, nil
}

const selectWorkColumns = `
SELECT id, openalex_id, doi, title, abstract, year, publication_date, type,
       language, source, source_id, issn, volume, issue, first_page, last_page,
       publisher, cited_by_count, is_oa, oa_status, oa_url, authors_json,
       concepts_json, topics_json, referenced_works_json, ref_count, created_at
FROM works`

// GetWork fetches one work by bare OpenAlex ID. Not found is (nil, nil).
func (s *Store) GetWork(openalexID string) (*corpus.Work, error) {
	var row workRow
	err := s.db.Get(&row, selectWorkColumns+" WHERE openalex_id = ?", openalexID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying work %s: %w", openalexID, err)
	}
	w := row.toWork()
	return &w, nil
}

// GetWorkByDOI fetches one work by bare DOI. Not found is (nil, nil).
func (s *Store) GetWorkByDOI(doi string) (*corpus.Work, error) {
	var row workRow
	err := s.db.Get(&row, selectWorkColumns+" WHERE doi = ?", doi)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying work by doi %s: %w", doi, err)
	}
	w := row.toWork()
	return &w, nil
}

// GetWorks fetches a batch of works by OpenAlex ID. Missing IDs are simply
// absent from the result; the caller compares lengths.
func (s *Store) GetWorks(ids []string) ([]corpus.Work, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(selectWorkColumns+" WHERE openalex_id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("building batch query: %w", err)
	}

	var rows []workRow
	if err := s.db.Select(&rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying works batch: %w", err)
	}

	works := make([]corpus.Work, 0, len(rows))
	for i := range rows {
		works = append(works, rows[i].toWork())
	}
	return works, nil
}

// WorkExists reports whether an OpenAlex ID is present.
func (s *Store) WorkExists(openalexID string) (bool, error) {
	var one int
	err := s.db.Get(&one, "SELECT 1 FROM works WHERE openalex_id = ? LIMIT 1", openalexID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking work %s: %w", openalexID, err)
	}
	return true, nil
}

// MaxWorkRowID returns the highest works rowid, or 0 on an empty table.
// Status reporting uses this instead of COUNT(*), which scans.
func (s *Store) MaxWorkRowID() (int64, error) {
	var max sql.NullInt64
	if err := s.db.Get(&max, "SELECT MAX(id) FROM works"); err != nil {
		return 0, fmt.Errorf("querying max work rowid: %w", err)
	}
	return max.Int64, nil
}

// PopulateRefCounts fills works.ref_count from the stored reference lists in
// rowid-windowed batches. Runs after ingestion and before the citation build;
// rows with no reference list keep the default 0.
func (s *Store) PopulateRefCounts(batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 50000
	}
	maxID, err := s.MaxWorkRowID()
	if err != nil {
		return 0, err
	}

	var updated int64
	for lo := int64(0); lo < maxID; lo += int64(batchSize) {
		res, err := s.db.Exec(`
			UPDATE works
			SET ref_count = json_array_length(referenced_works_json)
			WHERE id > ? AND id <= ? AND referenced_works_json IS NOT NULL`,
			lo, lo+int64(batchSize))
		if err != nil {
			return updated, fmt.Errorf("populating ref_count (rowid %d): %w", lo, err)
		}
		n, _ := res.RowsAffected()
		updated += n
	}
	return updated, nil
}

// DistinctISSNs lists every ISSN that appears on at least one work, for the
// Impact-Factor precompute sweep.
func (s *Store) DistinctISSNs(limit int) ([]string, error) {
	query := "SELECT DISTINCT issn FROM works WHERE issn IS NOT NULL ORDER BY issn"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var issns []string
	if err := s.db.Select(&issns, query); err != nil {
		return nil, fmt.Errorf("listing distinct ISSNs: %w", err)
	}
	return issns, nil
}
