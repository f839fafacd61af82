package api

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/matsen/oalex/internal/corpus"
	"github.com/matsen/oalex/internal/store"
)

func setupLocal(t *testing.T) (*store.Store, *Local) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	works := []corpus.Work{
		{OpenAlexID: "W1", DOI: "10.1/alpha", Title: "Alpha", Year: 2021},
		{OpenAlexID: "W2", Title: "Beta", Year: 2022},
	}
	if _, err := st.InsertWorks(works); err != nil {
		t.Fatal(err)
	}
	return st, NewLocal(st, 2, zerolog.Nop())
}

func TestLocalGetRoutesDOIs(t *testing.T) {
	_, client := setupLocal(t)
	ctx := context.Background()

	byID, err := client.Get(ctx, "W1")
	if err != nil || byID == nil || byID.DOI != "10.1/alpha" {
		t.Errorf("by ID: %+v, %v", byID, err)
	}

	byDOI, err := client.Get(ctx, "10.1/alpha")
	if err != nil || byDOI == nil || byDOI.OpenAlexID != "W1" {
		t.Errorf("by DOI: %+v, %v", byDOI, err)
	}

	missing, err := client.Get(ctx, "W404")
	if err != nil || missing != nil {
		t.Errorf("missing work: %+v, %v", missing, err)
	}
}

func TestLocalStatusFallsBackToRowID(t *testing.T) {
	st, client := setupLocal(t)
	ctx := context.Background()

	// No metadata recorded yet: the total comes from the rowid high end.
	status, err := client.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.TotalWorks != 2 {
		t.Errorf("total works = %d, want rowid fallback 2", status.TotalWorks)
	}

	// Once recorded, the metadata total is authoritative.
	if err := st.SetMeta("total_works", "1000"); err != nil {
		t.Fatal(err)
	}
	status, err = client.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.TotalWorks != 1000 {
		t.Errorf("total works = %d, want metadata value", status.TotalWorks)
	}
}

func TestLocalExists(t *testing.T) {
	_, client := setupLocal(t)
	ctx := context.Background()

	for _, tt := range []struct {
		id   string
		want bool
	}{
		{"W1", true},
		{"10.1/alpha", true},
		{"W404", false},
		{"10.9/missing", false},
	} {
		ok, err := client.Exists(ctx, tt.id)
		if err != nil {
			t.Fatal(err)
		}
		if ok != tt.want {
			t.Errorf("Exists(%q) = %v, want %v", tt.id, ok, tt.want)
		}
	}
}
