// Package corpus defines the domain types shared by the ingestion pipeline,
// the store, and the query API.
package corpus

// Concept is an OpenAlex concept tag with its confidence score.
type Concept struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Topic is an OpenAlex topic tag with its subfield/field classification.
type Topic struct {
	Name     string `json:"name"`
	Subfield string `json:"subfield,omitempty"`
	Field    string `json:"field,omitempty"`
}

// Work is one scholarly record in the corpus.
//
// Abstract is a pointer because abstract availability in the snapshot is
// intentionally partial (~45-60%); a missing abstract is nil, never "".
type Work struct {
	OpenAlexID      string    `json:"openalex_id"`
	DOI             string    `json:"doi,omitempty"`
	Title           string    `json:"title,omitempty"`
	Abstract        *string   `json:"abstract,omitempty"`
	Authors         []string  `json:"authors,omitempty"`
	Year            int       `json:"year,omitempty"`
	PublicationDate string    `json:"publication_date,omitempty"`
	Type            string    `json:"type,omitempty"`
	Language        string    `json:"language,omitempty"`
	Source          string    `json:"source,omitempty"`
	SourceID        string    `json:"source_id,omitempty"`
	ISSN            string    `json:"issn,omitempty"`
	Volume          string    `json:"volume,omitempty"`
	Issue           string    `json:"issue,omitempty"`
	FirstPage       string    `json:"first_page,omitempty"`
	LastPage        string    `json:"last_page,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	CitedByCount    int       `json:"cited_by_count"`
	IsOA            bool      `json:"is_oa"`
	OAStatus        string    `json:"oa_status,omitempty"`
	OAURL           string    `json:"oa_url,omitempty"`
	Concepts        []Concept `json:"concepts,omitempty"`
	Topics          []Topic   `json:"topics,omitempty"`
	ReferencedWorks []string  `json:"referenced_works,omitempty"`
	RefCount        int       `json:"ref_count"`
}

// AbstractText returns the abstract or "" when absent.
func (w *Work) AbstractText() string {
	if w.Abstract == nil {
		return ""
	}
	return *w.Abstract
}

// Pages returns the page range in "first-last" form, or just the first page.
func (w *Work) Pages() string {
	if w.FirstPage == "" {
		return ""
	}
	if w.LastPage == "" || w.LastPage == w.FirstPage {
		return w.FirstPage
	}
	return w.FirstPage + "-" + w.LastPage
}

// Source is one journal/venue from the sources snapshot.
type Source struct {
	OpenAlexID           string   `json:"openalex_id"`
	ISSNL                string   `json:"issn_l,omitempty"`
	ISSNs                []string `json:"issns,omitempty"`
	DisplayName          string   `json:"display_name,omitempty"`
	Type                 string   `json:"type,omitempty"`
	HostOrganization     string   `json:"host_organization,omitempty"`
	CountryCode          string   `json:"country_code,omitempty"`
	HomepageURL          string   `json:"homepage_url,omitempty"`
	WorksCount           int      `json:"works_count"`
	OAWorksCount         int      `json:"oa_works_count"`
	CitedByCount         int      `json:"cited_by_count"`
	TwoYearMeanCitedness *float64 `json:"two_year_mean_citedness,omitempty"`
	HIndex               *int     `json:"h_index,omitempty"`
	I10Index             *int     `json:"i10_index,omitempty"`
	IsOA                 bool     `json:"is_oa"`
	IsInDOAJ             bool     `json:"is_in_doaj"`
	IsCore               bool     `json:"is_core"`
	FirstPublicationYear *int     `json:"first_publication_year,omitempty"`
	LastPublicationYear  *int     `json:"last_publication_year,omitempty"`
	APCUSD               *int     `json:"apc_usd,omitempty"`
}

// SearchResult is a page of full-text matches plus the total match count.
type SearchResult struct {
	Works     []Work  `json:"works"`
	Total     int     `json:"total"`
	Query     string  `json:"query"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// ImpactFactor is one computed (issn, year, window) aggregate.
//
// Defined distinguishes "no citable articles in the window" from an IF of
// zero; callers must check it before reading Value.
type ImpactFactor struct {
	ISSN        string  `json:"issn"`
	JournalName string  `json:"journal_name,omitempty"`
	Year        int     `json:"year"`
	Window      int     `json:"window"`
	Defined     bool    `json:"defined"`
	Value       float64 `json:"impact_factor"`
	Citations   int     `json:"citations_count"`
	Articles    int     `json:"articles_count"`
}
