// Package impact computes JCR-style Journal Impact Factors from the local
// citation graph.
//
// For target year Y and window W, the denominator is the journal's citable
// items published in [Y-W, Y-1] and the numerator is citations made in year
// Y to those same items. "Citable" approximates the JCR article/review
// universe structurally: the work must carry a reference list and that list
// must be longer than a threshold, which screens out editorials, letters,
// and errata without needing trustworthy type labels.
package impact

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/matsen/oalex/internal/corpus"
	"github.com/matsen/oalex/internal/store"
)

// DefaultMinReferences is the reference-count threshold for citable items;
// the comparison is strictly greater-than.
const DefaultMinReferences = 20

// Engine computes Impact Factors against a store.
type Engine struct {
	Store         *store.Store
	Window        int // 2 or 5
	MinReferences int // strictly greater-than; 0 means DefaultMinReferences
	Log           zerolog.Logger
}

func (e *Engine) window() int {
	if e.Window == 0 {
		return 2
	}
	return e.Window
}

func (e *Engine) minRefs() int {
	if e.MinReferences == 0 {
		return DefaultMinReferences
	}
	return e.MinReferences
}

// citableWorksSQL selects the denominator set: works in the journal, in the
// window, carrying a reference list longer than the threshold. The explicit
// IS NOT NULL keeps reference-less works out even if ref_count defaulted to 0.
const citableWorksSQL = `
SELECT openalex_id FROM works
WHERE issn = ? AND year >= ? AND year <= ?
  AND referenced_works_json IS NOT NULL
  AND ref_count > ?`

// Compute calculates the Impact Factor of one journal for one target year.
// A journal with no citable items in the window yields Defined=false, which
// is distinct from a defined value of zero.
func (e *Engine) Compute(issn string, year int) (*corpus.ImpactFactor, error) {
	w := e.window()
	startYear, endYear := year-w, year-1

	jif := &corpus.ImpactFactor{
		ISSN:   issn,
		Year:   year,
		Window: w,
	}

	err := e.Store.DB().Get(&jif.Articles,
		"SELECT COUNT(*) FROM ("+citableWorksSQL+")",
		issn, startYear, endYear, e.minRefs())
	if err != nil {
		return nil, fmt.Errorf("counting citable items for %s: %w", issn, err)
	}
	if jif.Articles == 0 {
		return jif, nil
	}

	err = e.Store.DB().Get(&jif.Citations, `
		SELECT COUNT(*) FROM citations
		WHERE citing_year = ?
		  AND cited_id IN (`+citableWorksSQL+`)`,
		year, issn, startYear, endYear, e.minRefs())
	if err != nil {
		return nil, fmt.Errorf("counting citations for %s: %w", issn, err)
	}

	jif.Defined = true
	jif.Value = roundHalfEven(float64(jif.Citations) / float64(jif.Articles))

	if name, err := e.Store.JournalName(issn); err == nil {
		jif.JournalName = name
	}
	return jif, nil
}

// Lookup returns the precomputed Impact Factor for (issn, year, window),
// falling back to a live Compute when no precomputed row exists.
func (e *Engine) Lookup(issn string, year int) (*corpus.ImpactFactor, error) {
	row := struct {
		JournalName    *string  `db:"journal_name"`
		ImpactFactor   *float64 `db:"impact_factor"`
		CitationsCount int      `db:"citations_count"`
		ArticlesCount  int      `db:"articles_count"`
	}{}

	err := e.Store.DB().Get(&row, `
		SELECT journal_name, impact_factor, citations_count, articles_count
		FROM journal_impact_factors
		WHERE issn = ? AND year = ? AND window = ?`,
		issn, year, e.window())
	if err != nil {
		return e.Compute(issn, year)
	}

	jif := &corpus.ImpactFactor{
		ISSN:      issn,
		Year:      year,
		Window:    e.window(),
		Citations: row.CitationsCount,
		Articles:  row.ArticlesCount,
	}
	if row.JournalName != nil {
		jif.JournalName = *row.JournalName
	}
	if row.ImpactFactor != nil {
		jif.Defined = true
		jif.Value = *row.ImpactFactor
	}
	return jif, nil
}

// roundHalfEven rounds to one decimal with ties going to the even digit,
// the rounding the reference dataset was produced with: 1.25 becomes 1.2,
// not 1.3.
func roundHalfEven(x float64) float64 {
	scaled := x * 10
	floor := math.Floor(scaled)
	switch diff := scaled - floor; {
	case diff > 0.5:
		floor++
	case diff == 0.5:
		if math.Mod(floor, 2) != 0 {
			floor++
		}
	}
	return floor / 10
}

// PrecomputeResult summarizes a precompute sweep.
type PrecomputeResult struct {
	Journals  int `json:"journals"`
	Defined   int `json:"defined"`
	Undefined int `json:"undefined"`
}

// PrecomputeAll computes and stores the Impact Factor for every distinct
// ISSN in the corpus (or the first limit of them). Undefined results are
// stored with a NULL impact_factor so lookups can tell "computed, undefined"
// from "never computed". Commits and logs progress every 1000 journals.
func (e *Engine) PrecomputeAll(ctx context.Context, year, limit int) (*PrecomputeResult, error) {
	issns, err := e.Store.DistinctISSNs(limit)
	if err != nil {
		return nil, err
	}

	res := &PrecomputeResult{}
	started := time.Now()

	const commitEvery = 1000
	for start := 0; start < len(issns); start += commitEvery {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := start + commitEvery
		if end > len(issns) {
			end = len(issns)
		}

		tx, err := e.Store.DB().Beginx()
		if err != nil {
			return res, fmt.Errorf("beginning precompute batch: %w", err)
		}
		stmt, err := tx.Preparex(`
			INSERT OR REPLACE INTO journal_impact_factors
			(issn, year, window, journal_name, impact_factor, citations_count, articles_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			tx.Rollback()
			return res, fmt.Errorf("preparing precompute insert: %w", err)
		}

		for _, issn := range issns[start:end] {
			jif, err := e.Compute(issn, year)
			if err != nil {
				stmt.Close()
				tx.Rollback()
				return res, err
			}
			var value *float64
			if jif.Defined {
				value = &jif.Value
				res.Defined++
			} else {
				res.Undefined++
			}
			var name *string
			if jif.JournalName != "" {
				name = &jif.JournalName
			}
			if _, err := stmt.Exec(issn, year, e.window(), name, value,
				jif.Citations, jif.Articles); err != nil {
				stmt.Close()
				tx.Rollback()
				return res, fmt.Errorf("storing impact factor for %s: %w", issn, err)
			}
			res.Journals++
		}

		stmt.Close()
		if err := tx.Commit(); err != nil {
			return res, fmt.Errorf("committing precompute batch: %w", err)
		}

		elapsed := time.Since(started).Seconds()
		perSec := 0.0
		if elapsed > 0 {
			perSec = float64(res.Journals) / elapsed
		}
		e.Log.Info().Int("journals", res.Journals).Int("of", len(issns)).
			Float64("journals_per_sec", perSec).Msg("precomputing impact factors")
	}

	return res, nil
}
