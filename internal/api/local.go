package api

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/matsen/oalex/internal/corpus"
	"github.com/matsen/oalex/internal/fts"
	"github.com/matsen/oalex/internal/impact"
	"github.com/matsen/oalex/internal/store"
)

// Local is the embedded Client over a corpus database on disk.
type Local struct {
	store  *store.Store
	index  *fts.Index
	engine *impact.Engine
}

// OpenLocal opens the corpus database at path and returns an embedded client.
func OpenLocal(path string, window int, log zerolog.Logger) (*Local, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return &Local{
		store:  st,
		index:  fts.New(st, log),
		engine: &impact.Engine{Store: st, Window: window, Log: log},
	}, nil
}

// NewLocal wraps an already open store; the caller keeps ownership of it.
func NewLocal(st *store.Store, window int, log zerolog.Logger) *Local {
	return &Local{
		store:  st,
		index:  fts.New(st, log),
		engine: &impact.Engine{Store: st, Window: window, Log: log},
	}
}

func (l *Local) Search(ctx context.Context, query string, limit, offset int) (*corpus.SearchResult, error) {
	return l.index.Search(query, limit, offset)
}

func (l *Local) Count(ctx context.Context, query string) (int, error) {
	return l.index.Count(query)
}

func (l *Local) Get(ctx context.Context, id string) (*corpus.Work, error) {
	if IsDOI(id) {
		return l.store.GetWorkByDOI(id)
	}
	return l.store.GetWork(id)
}

func (l *Local) GetMany(ctx context.Context, ids []string) ([]corpus.Work, error) {
	return l.store.GetWorks(ids)
}

func (l *Local) Exists(ctx context.Context, id string) (bool, error) {
	if IsDOI(id) {
		w, err := l.store.GetWorkByDOI(id)
		return w != nil, err
	}
	return l.store.WorkExists(id)
}

func (l *Local) ImpactFactor(ctx context.Context, issn string, year int) (*corpus.ImpactFactor, error) {
	return l.engine.Lookup(issn, year)
}

// Status reads the totals the build stages recorded. total_works falls back
// to MAX(rowid) when the metadata is missing (an interrupted first load);
// COUNT(*) is never used, it scans the whole table.
func (l *Local) Status(ctx context.Context) (*Status, error) {
	st := &Status{DatabasePath: l.store.Path()}

	st.TotalWorks = l.metaInt("total_works")
	if st.TotalWorks == 0 {
		max, err := l.store.MaxWorkRowID()
		if err != nil {
			return nil, err
		}
		st.TotalWorks = max
	}
	st.TotalCitations = l.metaInt("total_citations")
	st.FTSIndexed = l.metaInt("fts_total_indexed")
	return st, nil
}

func (l *Local) metaInt(key string) int64 {
	v, err := l.store.GetMeta(key)
	if err != nil || v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (l *Local) Close() error {
	return l.store.Close()
}
