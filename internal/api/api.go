// Package api is the query surface over a corpus: one Client interface with
// an embedded implementation and an HTTP relay client, selected once from
// configuration.
package api

import (
	"context"

	"github.com/matsen/oalex/internal/corpus"
)

// Status reports what a corpus contains. Totals come from the metadata the
// build stages record, so producing a Status never scans the big tables.
type Status struct {
	DatabasePath   string `json:"database_path,omitempty"`
	RemoteURL      string `json:"remote_url,omitempty"`
	TotalWorks     int64  `json:"total_works"`
	TotalCitations int64  `json:"total_citations"`
	FTSIndexed     int64  `json:"fts_indexed"`
}

// Client is the uniform read interface over a corpus. Lookups that find
// nothing return (nil, nil); errors mean the corpus could not be consulted.
type Client interface {
	// Search runs a ranked full-text query and returns one result page.
	Search(ctx context.Context, query string, limit, offset int) (*corpus.SearchResult, error)

	// Count returns the total number of matches for query.
	Count(ctx context.Context, query string) (int, error)

	// Get fetches one work by bare OpenAlex ID or DOI.
	Get(ctx context.Context, id string) (*corpus.Work, error)

	// GetMany fetches a batch; missing IDs are simply absent from the
	// result, and a short result is not an error.
	GetMany(ctx context.Context, ids []string) ([]corpus.Work, error)

	// Exists reports whether an identifier resolves to a work.
	Exists(ctx context.Context, id string) (bool, error)

	// ImpactFactor returns the journal Impact Factor for (issn, year),
	// precomputed when available.
	ImpactFactor(ctx context.Context, issn string, year int) (*corpus.ImpactFactor, error)

	// Status summarizes the corpus.
	Status(ctx context.Context) (*Status, error)

	// Close releases the client's resources.
	Close() error
}

// IsDOI reports whether an identifier should be resolved as a DOI rather
// than an OpenAlex ID. Bare OpenAlex work IDs are W followed by digits;
// everything containing a slash or dot prefix is treated as a DOI.
func IsDOI(id string) bool {
	if len(id) == 0 {
		return false
	}
	if id[0] == 'W' || id[0] == 'w' {
		for _, c := range id[1:] {
			if c < '0' || c > '9' {
				return true
			}
		}
		return len(id) == 1
	}
	return true
}
