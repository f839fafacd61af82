package store

import "fmt"

// schemaSQL creates every table the pipeline needs. All statements are
// idempotent so opening an existing database is a no-op.
//
// The citation-derived columns on works (ref_count) start at their defaults;
// PopulateRefCounts fills them after ingestion. Secondary indexes that only
// matter after bulk load (citations, ref_count composites) are created by the
// explicit CreateCitationIndexes / CreateRefCountIndexes calls instead, so
// ingest does not pay index maintenance per row.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS works (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    openalex_id TEXT UNIQUE NOT NULL,
    doi TEXT,
    title TEXT,
    abstract TEXT,
    year INTEGER,
    publication_date TEXT,
    type TEXT,
    language TEXT,
    source TEXT,
    source_id TEXT,
    issn TEXT,
    volume TEXT,
    issue TEXT,
    first_page TEXT,
    last_page TEXT,
    publisher TEXT,
    cited_by_count INTEGER DEFAULT 0,
    is_oa INTEGER DEFAULT 0,
    oa_status TEXT,
    oa_url TEXT,
    authors_json TEXT,
    concepts_json TEXT,
    topics_json TEXT,
    referenced_works_json TEXT,
    ref_count INTEGER DEFAULT 0,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_works_doi ON works(doi);
CREATE INDEX IF NOT EXISTS idx_works_year ON works(year);
CREATE INDEX IF NOT EXISTS idx_works_issn ON works(issn);
CREATE INDEX IF NOT EXISTS idx_works_source_id ON works(source_id);
CREATE INDEX IF NOT EXISTS idx_works_type ON works(type);

CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    openalex_id TEXT UNIQUE NOT NULL,
    issn_l TEXT,
    issns_json TEXT,
    display_name TEXT,
    type TEXT,
    host_organization TEXT,
    country_code TEXT,
    homepage_url TEXT,
    works_count INTEGER DEFAULT 0,
    oa_works_count INTEGER DEFAULT 0,
    cited_by_count INTEGER DEFAULT 0,
    two_year_mean_citedness REAL,
    h_index INTEGER,
    i10_index INTEGER,
    is_oa INTEGER DEFAULT 0,
    is_in_doaj INTEGER DEFAULT 0,
    is_core INTEGER DEFAULT 0,
    first_publication_year INTEGER,
    last_publication_year INTEGER,
    apc_usd INTEGER,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sources_issn_l ON sources(issn_l);
CREATE INDEX IF NOT EXISTS idx_sources_display_name ON sources(display_name);

CREATE TABLE IF NOT EXISTS issn_lookup (
    issn TEXT PRIMARY KEY,
    source_openalex_id TEXT NOT NULL,
    display_name TEXT
);

CREATE TABLE IF NOT EXISTS citations (
    citing_id TEXT NOT NULL,
    cited_id TEXT NOT NULL,
    citing_year INTEGER
);

CREATE TABLE IF NOT EXISTS journal_impact_factors (
    issn TEXT NOT NULL,
    year INTEGER NOT NULL,
    window INTEGER NOT NULL,
    journal_name TEXT,
    impact_factor REAL,
    citations_count INTEGER,
    articles_count INTEGER,
    computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (issn, year, window)
);

CREATE TABLE IF NOT EXISTS _build_progress (
    file_path TEXT PRIMARY KEY,
    records_processed INTEGER DEFAULT 0,
    completed_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS _sources_build_progress (
    file_path TEXT PRIMARY KEY,
    records_processed INTEGER DEFAULT 0,
    completed_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS _citations_build_progress (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_rowid INTEGER NOT NULL,
    updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS _metadata (
    key TEXT PRIMARY KEY,
    value TEXT,
    updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`

const citationIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_citations_cited_year ON citations(cited_id, citing_year);
CREATE INDEX IF NOT EXISTS idx_citations_citing ON citations(citing_id);
CREATE INDEX IF NOT EXISTS idx_citations_year ON citations(citing_year);
`

const refCountIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_works_ref_count ON works(ref_count);
CREATE INDEX IF NOT EXISTS idx_works_issn_year_refcount ON works(issn, year, ref_count);
`

// CreateCitationIndexes builds the citation lookup indexes. Called once after
// the graph build; creating them up front would slow the bulk insert badly.
func (s *Store) CreateCitationIndexes() error {
	if _, err := s.db.Exec(citationIndexSQL); err != nil {
		return fmt.Errorf("creating citation indexes: %w", err)
	}
	return nil
}

// CreateRefCountIndexes builds the indexes the Impact-Factor queries lean on.
func (s *Store) CreateRefCountIndexes() error {
	if _, err := s.db.Exec(refCountIndexSQL); err != nil {
		return fmt.Errorf("creating ref_count indexes: %w", err)
	}
	return nil
}
