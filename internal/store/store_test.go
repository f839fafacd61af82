package store

import (
	"path/filepath"
	"testing"

	"github.com/matsen/oalex/internal/corpus"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func abstract(s string) *string { return &s }

func testWorks() []corpus.Work {
	return []corpus.Work{
		{
			OpenAlexID: "W1", DOI: "10.1/alpha", Title: "Alpha study",
			Abstract: abstract("A study of alphas."),
			Authors:  []string{"Ada Lovelace"}, Year: 2021, ISSN: "1111-1111",
			ReferencedWorks: []string{"W2", "W3"}, RefCount: 2,
		},
		{
			OpenAlexID: "W2", DOI: "10.1/beta", Title: "Beta methods",
			Authors: []string{"Grace Hopper", "Alan Turing"}, Year: 2022, ISSN: "1111-1111",
		},
		{
			OpenAlexID: "W3", Title: "Gamma results", Year: 2020,
		},
	}
}

func TestInsertWorksIdempotent(t *testing.T) {
	st := openTestStore(t)

	n, err := st.InsertWorks(testWorks())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("first insert: %d rows, want 3", n)
	}

	// Re-inserting the same batch must be a no-op, and must not disturb rows.
	n, err = st.InsertWorks(testWorks())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second insert: %d rows, want 0", n)
	}

	max, err := st.MaxWorkRowID()
	if err != nil {
		t.Fatal(err)
	}
	if max != 3 {
		t.Errorf("max rowid = %d, want 3", max)
	}
}

func TestGetWorkRoundTrip(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.InsertWorks(testWorks()); err != nil {
		t.Fatal(err)
	}

	w, err := st.GetWork("W1")
	if err != nil {
		t.Fatal(err)
	}
	if w == nil {
		t.Fatal("W1 not found")
	}
	if w.Title != "Alpha study" || w.Year != 2021 {
		t.Errorf("got %q (%d)", w.Title, w.Year)
	}
	if w.AbstractText() != "A study of alphas." {
		t.Errorf("abstract = %q", w.AbstractText())
	}
	if len(w.Authors) != 1 || w.Authors[0] != "Ada Lovelace" {
		t.Errorf("authors = %v", w.Authors)
	}
	if len(w.ReferencedWorks) != 2 {
		t.Errorf("references = %v", w.ReferencedWorks)
	}

	byDOI, err := st.GetWorkByDOI("10.1/beta")
	if err != nil {
		t.Fatal(err)
	}
	if byDOI == nil || byDOI.OpenAlexID != "W2" {
		t.Errorf("by DOI: %+v", byDOI)
	}
	if byDOI.Abstract != nil {
		t.Errorf("missing abstract should round-trip as nil, got %q", *byDOI.Abstract)
	}

	missing, err := st.GetWork("W999")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("absent work should be (nil, nil), got %+v", missing)
	}
}

func TestGetWorksPartialBatch(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.InsertWorks(testWorks()); err != nil {
		t.Fatal(err)
	}

	works, err := st.GetWorks([]string{"W1", "W404", "W3"})
	if err != nil {
		t.Fatal(err)
	}
	if len(works) != 2 {
		t.Errorf("got %d works, want 2 (missing IDs absent, not errors)", len(works))
	}
}

func TestWorkExists(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.InsertWorks(testWorks()); err != nil {
		t.Fatal(err)
	}

	ok, err := st.WorkExists("W2")
	if err != nil || !ok {
		t.Errorf("W2: ok=%v err=%v", ok, err)
	}
	ok, err = st.WorkExists("W404")
	if err != nil || ok {
		t.Errorf("W404: ok=%v err=%v", ok, err)
	}
}

func TestPopulateRefCounts(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.InsertWorks(testWorks()); err != nil {
		t.Fatal(err)
	}

	// Inserted rows start at the default; the populate pass derives the real
	// counts from the stored reference lists.
	updated, err := st.PopulateRefCounts(2)
	if err != nil {
		t.Fatal(err)
	}
	if updated != 1 {
		t.Errorf("updated %d rows, want 1 (only W1 has references)", updated)
	}

	w, err := st.GetWork("W1")
	if err != nil {
		t.Fatal(err)
	}
	if w.RefCount != 2 {
		t.Errorf("W1 ref_count = %d, want 2", w.RefCount)
	}
	w, err = st.GetWork("W2")
	if err != nil {
		t.Fatal(err)
	}
	if w.RefCount != 0 {
		t.Errorf("W2 ref_count = %d, want 0", w.RefCount)
	}
}

func TestShardCheckpoints(t *testing.T) {
	st := openTestStore(t)

	done, err := st.CompletedShards(WorksShards)
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 0 {
		t.Errorf("fresh database has %d completed shards", len(done))
	}

	if err := st.MarkShardDone(WorksShards, "/snap/works/part_000.gz", 1200); err != nil {
		t.Fatal(err)
	}
	if err := st.MarkShardDone(WorksShards, "/snap/works/part_000.gz", 1250); err != nil {
		t.Fatal(err) // re-marking updates the record count
	}
	if err := st.MarkShardDone(SourcesShards, "/snap/sources/part_000.gz", 30); err != nil {
		t.Fatal(err)
	}

	done, err = st.CompletedShards(WorksShards)
	if err != nil {
		t.Fatal(err)
	}
	if !done["/snap/works/part_000.gz"] || len(done) != 1 {
		t.Errorf("works checkpoints = %v; kinds must not share a table", done)
	}

	var records int
	err = st.db.Get(&records,
		"SELECT records_processed FROM _build_progress WHERE file_path = ?",
		"/snap/works/part_000.gz")
	if err != nil {
		t.Fatal(err)
	}
	if records != 1250 {
		t.Errorf("records_processed = %d, want 1250", records)
	}
}

func TestCitationCheckpoint(t *testing.T) {
	st := openTestStore(t)

	last, err := st.CitationCheckpoint()
	if err != nil || last != 0 {
		t.Errorf("fresh checkpoint = %d, %v", last, err)
	}
	if err := st.SaveCitationCheckpoint(5000); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveCitationCheckpoint(10000); err != nil {
		t.Fatal(err)
	}
	last, err = st.CitationCheckpoint()
	if err != nil {
		t.Fatal(err)
	}
	if last != 10000 {
		t.Errorf("checkpoint = %d, want 10000", last)
	}
}

func TestMetadata(t *testing.T) {
	st := openTestStore(t)

	v, err := st.GetMeta("total_works")
	if err != nil || v != "" {
		t.Errorf("missing key: %q, %v", v, err)
	}
	if err := st.SetMeta("total_works", "42"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetMeta("total_works", "43"); err != nil {
		t.Fatal(err)
	}
	v, err = st.GetMeta("total_works")
	if err != nil {
		t.Fatal(err)
	}
	if v != "43" {
		t.Errorf("got %q, want last write", v)
	}
}

func TestSourcesAndISSNLookup(t *testing.T) {
	st := openTestStore(t)

	mean := 17.9
	sources := []corpus.Source{
		{
			OpenAlexID: "S1", ISSNL: "1111-1111", ISSNs: []string{"1111-1111", "1111-2222"},
			DisplayName: "Journal of Alphas", TwoYearMeanCitedness: &mean,
		},
		{OpenAlexID: "S2", ISSNL: "3333-3333", DisplayName: "Beta Review"},
	}
	if _, err := st.UpsertSources(sources); err != nil {
		t.Fatal(err)
	}

	// First write wins: a later (older shard) record must not replace it.
	older := []corpus.Source{{OpenAlexID: "S1", ISSNL: "1111-1111", DisplayName: "Stale Name"}}
	if _, err := st.UpsertSources(older); err != nil {
		t.Fatal(err)
	}
	src, err := st.GetSource("S1")
	if err != nil {
		t.Fatal(err)
	}
	if src == nil || src.DisplayName != "Journal of Alphas" {
		t.Errorf("got %+v, want first write kept", src)
	}
	if src.TwoYearMeanCitedness == nil || *src.TwoYearMeanCitedness != 17.9 {
		t.Errorf("summary stats lost: %v", src.TwoYearMeanCitedness)
	}

	n, err := st.RebuildISSNLookup()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("lookup rows = %d, want 3 distinct ISSNs", n)
	}

	name, err := st.JournalName("1111-2222")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Journal of Alphas" {
		t.Errorf("JournalName = %q", name)
	}
}

func TestJournalNameFallsBackToWorks(t *testing.T) {
	st := openTestStore(t)
	works := []corpus.Work{{OpenAlexID: "W1", ISSN: "9999-9999", Source: "Obscure Letters"}}
	if _, err := st.InsertWorks(works); err != nil {
		t.Fatal(err)
	}

	name, err := st.JournalName("9999-9999")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Obscure Letters" {
		t.Errorf("JournalName = %q, want works fallback", name)
	}
}
