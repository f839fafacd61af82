package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matsen/oalex/internal/corpus"
)

type sourceRow struct {
	ID                   int64    `db:"id"`
	OpenAlexID           string   `db:"openalex_id"`
	ISSNL                *string  `db:"issn_l"`
	ISSNsJSON            *string  `db:"issns_json"`
	DisplayName          *string  `db:"display_name"`
	Type                 *string  `db:"type"`
	HostOrganization     *string  `db:"host_organization"`
	CountryCode          *string  `db:"country_code"`
	HomepageURL          *string  `db:"homepage_url"`
	WorksCount           int      `db:"works_count"`
	OAWorksCount         int      `db:"oa_works_count"`
	CitedByCount         int      `db:"cited_by_count"`
	TwoYearMeanCitedness *float64 `db:"two_year_mean_citedness"`
	HIndex               *int     `db:"h_index"`
	I10Index             *int     `db:"i10_index"`
	IsOA                 bool     `db:"is_oa"`
	IsInDOAJ             bool     `db:"is_in_doaj"`
	IsCore               bool     `db:"is_core"`
	FirstPublicationYear *int     `db:"first_publication_year"`
	LastPublicationYear  *int     `db:"last_publication_year"`
	APCUSD               *int     `db:"apc_usd"`
	CreatedAt            string   `db:"created_at"`
}

func rowFromSource(src *corpus.Source) sourceRow {
	return sourceRow{
		OpenAlexID:           src.OpenAlexID,
		ISSNL:                nullStr(src.ISSNL),
		ISSNsJSON:            jsonOrNil(src.ISSNs, len(src.ISSNs)),
		DisplayName:          nullStr(src.DisplayName),
		Type:                 nullStr(src.Type),
		HostOrganization:     nullStr(src.HostOrganization),
		CountryCode:          nullStr(src.CountryCode),
		HomepageURL:          nullStr(src.HomepageURL),
		WorksCount:           src.WorksCount,
		OAWorksCount:         src.OAWorksCount,
		CitedByCount:         src.CitedByCount,
		TwoYearMeanCitedness: src.TwoYearMeanCitedness,
		HIndex:               src.HIndex,
		I10Index:             src.I10Index,
		IsOA:                 src.IsOA,
		IsInDOAJ:             src.IsInDOAJ,
		IsCore:               src.IsCore,
		FirstPublicationYear: src.FirstPublicationYear,
		LastPublicationYear:  src.LastPublicationYear,
		APCUSD:               src.APCUSD,
	}
}

func (r *sourceRow) toSource() corpus.Source {
	s := corpus.Source{
		OpenAlexID:           r.OpenAlexID,
		ISSNL:                deref(r.ISSNL),
		DisplayName:          deref(r.DisplayName),
		Type:                 deref(r.Type),
		HostOrganization:     deref(r.HostOrganization),
		CountryCode:          deref(r.CountryCode),
		HomepageURL:          deref(r.HomepageURL),
		WorksCount:           r.WorksCount,
		OAWorksCount:         r.OAWorksCount,
		CitedByCount:         r.CitedByCount,
		TwoYearMeanCitedness: r.TwoYearMeanCitedness,
		HIndex:               r.HIndex,
		I10Index:             r.I10Index,
		IsOA:                 r.IsOA,
		IsInDOAJ:             r.IsInDOAJ,
		IsCore:               r.IsCore,
		FirstPublicationYear: r.FirstPublicationYear,
		LastPublicationYear:  r.LastPublicationYear,
		APCUSD:               r.APCUSD,
	}
	if r.ISSNsJSON != nil {
		json.Unmarshal([]byte(*r.ISSNsJSON), &s.ISSNs)
	}
	return s
}

const upsertSourceSQL = `
INSERT OR IGNORE INTO sources (
    openalex_id, issn_l, issns_json, display_name, type, host_organization,
    country_code, homepage_url, works_count, oa_works_count, cited_by_count,
    two_year_mean_citedness, h_index, i10_index, is_oa, is_in_doaj, is_core,
    first_publication_year, last_publication_year, apc_usd
) VALUES (
    :openalex_id, :issn_l, :issns_json, :display_name, :type, :host_organization,
    :country_code, :homepage_url, :works_count, :oa_works_count, :cited_by_count,
    :two_year_mean_citedness, :h_index, :i10_index, :is_oa, :is_in_doaj, :is_core,
    :first_publication_year, :last_publication_year, :apc_usd
)`

// UpsertSources writes a batch of sources in one transaction. Shards are
// walked newest-first and inserts are first-write-wins, so the freshest
// record for a source is the one kept and shard re-reads stay idempotent.
func (s *Store) UpsertSources(sources []corpus.Source) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("beginning sources batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(upsertSourceSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing sources insert: %w", err)
	}
	defer stmt.Close()

	for i := range sources {
		row := rowFromSource(&sources[i])
		if _, err := stmt.Exec(row); err != nil {
			return 0, fmt.Errorf("inserting source %s: %w", sources[i].OpenAlexID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing sources batch: %w", err)
	}
	return len(sources), nil
}

// GetSource fetches one source by bare OpenAlex ID. Not found is (nil, nil).
func (s *Store) GetSource(openalexID string) (*corpus.Source, error) {
	var row sourceRow
	err := s.db.Get(&row, "SELECT * FROM sources WHERE openalex_id = ?", openalexID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying source %s: %w", openalexID, err)
	}
	src := row.toSource()
	return &src, nil
}

// RebuildISSNLookup repopulates the issn → source mapping from the sources
// table. Each source contributes its issn_l and every listed ISSN.
func (s *Store) RebuildISSNLookup() (int, error) {
	var rows []sourceRow
	if err := s.db.Select(&rows, "SELECT * FROM sources"); err != nil {
		return 0, fmt.Errorf("reading sources for issn lookup: %w", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("beginning issn lookup rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM issn_lookup"); err != nil {
		return 0, fmt.Errorf("clearing issn lookup: %w", err)
	}

	stmt, err := tx.Preparex(
		"INSERT OR REPLACE INTO issn_lookup (issn, source_openalex_id, display_name) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing issn lookup insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for i := range rows {
		src := rows[i].toSource()
		seen := map[string]bool{}
		issns := src.ISSNs
		if src.ISSNL != "" {
			issns = append([]string{src.ISSNL}, issns...)
		}
		for _, issn := range issns {
			if issn == "" || seen[issn] {
				continue
			}
			seen[issn] = true
			if _, err := stmt.Exec(issn, src.OpenAlexID, src.DisplayName); err != nil {
				return 0, fmt.Errorf("inserting issn %s: %w", issn, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing issn lookup rebuild: %w", err)
	}
	return count, nil
}

// JournalName resolves a display name for an ISSN: the issn_lookup mapping
// first, then any work row carrying the ISSN, then the name cached on a
// precomputed impact-factor row, then "" when nothing knows it.
func (s *Store) JournalName(issn string) (string, error) {
	var name sql.NullString
	err := s.db.Get(&name, "SELECT display_name FROM issn_lookup WHERE issn = ?", issn)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("querying issn lookup for %s: %w", issn, err)
	}
	if name.Valid && name.String != "" {
		return name.String, nil
	}

	err = s.db.Get(&name,
		"SELECT source FROM works WHERE issn = ? AND source IS NOT NULL LIMIT 1", issn)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("querying works for journal name %s: %w", issn, err)
	}
	if name.Valid && name.String != "" {
		return name.String, nil
	}

	err = s.db.Get(&name, `
		SELECT journal_name FROM journal_impact_factors
		WHERE issn = ? AND journal_name IS NOT NULL
		ORDER BY year DESC LIMIT 1`, issn)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("querying cached journal name for %s: %w", issn, err)
	}
	return name.String, nil
}
