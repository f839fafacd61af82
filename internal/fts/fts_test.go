package fts

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/matsen/oalex/internal/corpus"
	"github.com/matsen/oalex/internal/store"
)

// setupIndex opens a fresh store. Tests choose when to Create the index:
// before seeding to exercise the triggers, after to exercise bulk Populate.
func setupIndex(t *testing.T) (*store.Store, *Index) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, New(st, zerolog.Nop())
}

func abstract(s string) *string { return &s }

func seedWorks(t *testing.T, st *store.Store) {
	t.Helper()
	works := []corpus.Work{
		{
			OpenAlexID: "W1", Title: "Deep learning for protein folding",
			Abstract: abstract("We apply neural networks to structure prediction."),
			Authors:  []string{"Maria Castellanos"}, Year: 2021,
		},
		{
			OpenAlexID: "W2", Title: "A survey of shallow methods",
			Abstract: abstract("Classical approaches to machine learning."),
			Authors:  []string{"Ben Okafor"}, Year: 2019,
		},
		{
			OpenAlexID: "W3", Title: "Crystallography field notes",
			Year:       2018,
		},
	}
	if _, err := st.InsertWorks(works); err != nil {
		t.Fatal(err)
	}
}

func TestSearchAfterPopulate(t *testing.T) {
	st, idx := setupIndex(t)

	// Bulk path: works are loaded first, then the index is created and
	// populated in one sweep.
	seedWorks(t, st)
	if err := idx.Create(); err != nil {
		t.Fatal(err)
	}
	n, err := idx.Populate(2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("indexed %d rows, want 3", n)
	}

	res, err := idx.Search("protein folding", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || len(res.Works) != 1 {
		t.Fatalf("total=%d works=%d, want 1", res.Total, len(res.Works))
	}
	if res.Works[0].OpenAlexID != "W1" {
		t.Errorf("hit = %s", res.Works[0].OpenAlexID)
	}
}

func TestSearchMatchesAuthors(t *testing.T) {
	st, idx := setupIndex(t)
	if err := idx.Create(); err != nil {
		t.Fatal(err)
	}
	seedWorks(t, st)

	res, err := idx.Search("Okafor", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Works[0].OpenAlexID != "W2" {
		t.Errorf("author search: %+v", res)
	}
}

func TestTriggersKeepIndexConsistent(t *testing.T) {
	st, idx := setupIndex(t)
	if err := idx.Create(); err != nil {
		t.Fatal(err)
	}
	seedWorks(t, st) // inserts fire the insert trigger

	n, err := idx.Count("learning")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("after insert: %d matches, want 2", n)
	}

	// Porter stemming: "folding" and "folds" share a stem.
	if n, _ := idx.Count("folds"); n != 1 {
		t.Errorf("stemmed query: %d matches, want 1", n)
	}

	if _, err := st.DB().Exec(
		"UPDATE works SET title = 'Gradient boosting in practice' WHERE openalex_id = 'W1'"); err != nil {
		t.Fatal(err)
	}
	if n, _ := idx.Count("protein"); n != 0 {
		t.Errorf("after update: stale title still matches")
	}
	if n, _ := idx.Count("boosting"); n != 1 {
		t.Errorf("after update: new title not indexed")
	}

	if _, err := st.DB().Exec("DELETE FROM works WHERE openalex_id = 'W2'"); err != nil {
		t.Fatal(err)
	}
	if n, _ := idx.Count("shallow"); n != 0 {
		t.Errorf("after delete: removed row still matches")
	}
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"plain words", "protein folding", "protein folding"},
		{"explicit phrase untouched", `"machine learning"`, `"machine learning"`},
		{"hyphenated token", "state-of-the-art methods", `"state-of-the-art" "methods"`},
		{"doi-like slash", "10.7717/peerj.4375", `"10.7717/peerj.4375"`},
		{"at sign", "alice@example.org", `"alice@example.org"`},
		{"trims whitespace", "  protein  ", "protein"},
		{"embedded quotes dropped when quoting", `anti-viral "therapy`, `"anti-viral" "therapy"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeQuery(tt.query); got != tt.want {
				t.Errorf("SanitizeQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestHyphenatedQueryMatchesQuotedForm(t *testing.T) {
	st, idx := setupIndex(t)
	if err := idx.Create(); err != nil {
		t.Fatal(err)
	}
	works := []corpus.Work{
		{OpenAlexID: "W1", Title: "A state-of-the-art review of folding"},
		{OpenAlexID: "W2", Title: "The state of the union"},
	}
	if _, err := st.InsertWorks(works); err != nil {
		t.Fatal(err)
	}

	bare, err := idx.Search("state-of-the-art", 10, 0)
	if err != nil {
		t.Fatalf("hyphenated query must not be a syntax error: %v", err)
	}
	quoted, err := idx.Search(`"state-of-the-art"`, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if bare.Total != quoted.Total || bare.Total != 1 {
		t.Errorf("bare=%d quoted=%d, want both 1", bare.Total, quoted.Total)
	}
	if bare.Works[0].OpenAlexID != "W1" {
		t.Errorf("hit = %s", bare.Works[0].OpenAlexID)
	}
}

func TestSearchPagination(t *testing.T) {
	st, idx := setupIndex(t)
	if err := idx.Create(); err != nil {
		t.Fatal(err)
	}
	seedWorks(t, st)

	page1, err := idx.Search("learning", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	page2, err := idx.Search("learning", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if page1.Total != 2 || page2.Total != 2 {
		t.Errorf("totals: %d, %d, want 2 on every page", page1.Total, page2.Total)
	}
	if len(page1.Works) != 1 || len(page2.Works) != 1 {
		t.Fatalf("page sizes: %d, %d", len(page1.Works), len(page2.Works))
	}
	if page1.Works[0].OpenAlexID == page2.Works[0].OpenAlexID {
		t.Error("pages overlap")
	}
}
