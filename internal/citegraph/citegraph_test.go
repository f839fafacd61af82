package citegraph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/matsen/oalex/internal/corpus"
	"github.com/matsen/oalex/internal/store"
)

func setup(t *testing.T) (*store.Store, *Builder) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, New(st, zerolog.Nop())
}

func TestBuildEdges(t *testing.T) {
	st, b := setup(t)

	works := []corpus.Work{
		{OpenAlexID: "W1", Year: 2022, ReferencedWorks: []string{"W2", "W3", "W2"}},
		{OpenAlexID: "W2", Year: 2020, ReferencedWorks: []string{"W3"}},
		{OpenAlexID: "W3", ReferencedWorks: []string{"W1"}}, // no year: skipped
		{OpenAlexID: "W4", Year: 2021},                      // no references: skipped
	}
	if _, err := st.InsertWorks(works); err != nil {
		t.Fatal(err)
	}

	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Resumed {
		t.Error("first build reported as resumed")
	}
	// W1 contributes 3 edges (duplicate reference kept), W2 one, W3 none.
	if res.Edges != 4 {
		t.Errorf("edges = %d, want 4", res.Edges)
	}

	var dupes int
	err = st.DB().Get(&dupes,
		"SELECT COUNT(*) FROM citations WHERE citing_id = 'W1' AND cited_id = 'W2'")
	if err != nil {
		t.Fatal(err)
	}
	if dupes != 2 {
		t.Errorf("duplicate reference produced %d edges, want 2", dupes)
	}

	var year int
	if err := st.DB().Get(&year,
		"SELECT citing_year FROM citations WHERE citing_id = 'W2'"); err != nil {
		t.Fatal(err)
	}
	if year != 2020 {
		t.Errorf("citing_year = %d, want publication year of the citing work", year)
	}

	if err := b.CreateIndexes(); err != nil {
		t.Fatal(err)
	}
}

func TestBuildResumesFromCheckpoint(t *testing.T) {
	st, b := setup(t)

	works := []corpus.Work{
		{OpenAlexID: "W1", Year: 2022, ReferencedWorks: []string{"W9"}},
		{OpenAlexID: "W2", Year: 2022, ReferencedWorks: []string{"W9"}},
	}
	if _, err := st.InsertWorks(works); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	// A second run starts at the high-water mark and must not duplicate edges.
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Resumed {
		t.Error("second build not reported as resumed")
	}
	if res.Edges != 0 {
		t.Errorf("second build added %d edges", res.Edges)
	}

	var total int
	if err := st.DB().Get(&total, "SELECT COUNT(*) FROM citations"); err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("total edges = %d, want 2", total)
	}
}
