// Package snapshot reads OpenAlex snapshot shards and normalizes their
// records into corpus rows.
//
// Snapshot records are deeply nested documents in which any field may be
// missing or null at any level. The decode types below make every field
// optional so that one malformed subfield degrades to null/empty for that
// field only; a record fails as a whole only when the line is not a JSON
// document at all.
package snapshot

// WorkRecord is the tolerant partial decode of one raw work line.
type WorkRecord struct {
	ID                    string           `json:"id"`
	DOI                   *string          `json:"doi"`
	Title                 *string          `json:"title"`
	DisplayName           *string          `json:"display_name"`
	PublicationYear       *int             `json:"publication_year"`
	PublicationDate       *string          `json:"publication_date"`
	Type                  *string          `json:"type"`
	Language              *string          `json:"language"`
	CitedByCount          *int             `json:"cited_by_count"`
	PrimaryLocation       *LocationRecord  `json:"primary_location"`
	Biblio                *BiblioRecord    `json:"biblio"`
	OpenAccess            *OARecord        `json:"open_access"`
	Authorships           []AuthorshipRec  `json:"authorships"`
	Concepts              []ConceptRecord  `json:"concepts"`
	Topics                []TopicRecord    `json:"topics"`
	ReferencedWorks       []string         `json:"referenced_works"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// LocationRecord is the primary_location substructure.
type LocationRecord struct {
	Source *LocationSource `json:"source"`
}

// LocationSource is the venue nested inside a location.
type LocationSource struct {
	ID                   *string  `json:"id"`
	DisplayName          *string  `json:"display_name"`
	ISSN                 []string `json:"issn"`
	HostOrganizationName *string  `json:"host_organization_name"`
}

// BiblioRecord is the volume/issue/pages substructure.
type BiblioRecord struct {
	Volume    *string `json:"volume"`
	Issue     *string `json:"issue"`
	FirstPage *string `json:"first_page"`
	LastPage  *string `json:"last_page"`
}

// OARecord is the open_access substructure.
type OARecord struct {
	IsOA     bool    `json:"is_oa"`
	OAStatus *string `json:"oa_status"`
	OAURL    *string `json:"oa_url"`
}

// AuthorshipRec is one entry of the authorships list.
type AuthorshipRec struct {
	Author struct {
		DisplayName *string `json:"display_name"`
	} `json:"author"`
}

// ConceptRecord is one entry of the concepts list.
type ConceptRecord struct {
	DisplayName *string  `json:"display_name"`
	Score       *float64 `json:"score"`
}

// TopicRecord is one entry of the topics list.
type TopicRecord struct {
	DisplayName *string `json:"display_name"`
	Subfield    *struct {
		DisplayName *string `json:"display_name"`
	} `json:"subfield"`
	Field *struct {
		DisplayName *string `json:"display_name"`
	} `json:"field"`
}

// SourceRecord is the tolerant partial decode of one raw source line.
type SourceRecord struct {
	ID                   string   `json:"id"`
	ISSNL                *string  `json:"issn_l"`
	ISSN                 []string `json:"issn"`
	DisplayName          *string  `json:"display_name"`
	Type                 *string  `json:"type"`
	HostOrganizationName *string  `json:"host_organization_name"`
	CountryCode          *string  `json:"country_code"`
	HomepageURL          *string  `json:"homepage_url"`
	WorksCount           *int     `json:"works_count"`
	OAWorksCount         *int     `json:"oa_works_count"`
	CitedByCount         *int     `json:"cited_by_count"`
	SummaryStats         *struct {
		TwoYearMeanCitedness *float64 `json:"2yr_mean_citedness"`
		HIndex               *int     `json:"h_index"`
		I10Index             *int     `json:"i10_index"`
	} `json:"summary_stats"`
	IsOA                 bool `json:"is_oa"`
	IsInDOAJ             bool `json:"is_in_doaj"`
	IsCore               bool `json:"is_core"`
	FirstPublicationYear *int `json:"first_publication_year"`
	LastPublicationYear  *int `json:"last_publication_year"`
	APCUSD               *int `json:"apc_usd"`
}
