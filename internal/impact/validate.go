package impact

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// validateSample caps how many reference journals a validation run checks;
// computing against the full JCR list takes hours without indexes warm.
const validateSample = 30

// goodMatch brackets the computed/reference ratio considered agreement.
const (
	goodMatchLow  = 0.8
	goodMatchHigh = 1.2
)

// ValidationRow compares one journal's computed value to the reference value.
type ValidationRow struct {
	ISSN      string   `json:"issn"`
	Journal   string   `json:"journal"`
	Reference float64  `json:"reference_if"`
	Computed  *float64 `json:"computed_if"` // nil when undefined locally
	Ratio     *float64 `json:"ratio,omitempty"`
	GoodMatch bool     `json:"good_match"`
}

// ValidationResult is the outcome of a Validate run.
type ValidationResult struct {
	Year        int             `json:"year"`
	Window      int             `json:"window"`
	Rows        []ValidationRow `json:"rows"`
	GoodMatches int             `json:"good_matches"`
	Compared    int             `json:"compared"`
}

// Validate computes Impact Factors for the first journals of a reference CSV
// (columns: issn, journal, jcr_if) and reports the computed/reference ratio
// per journal, flagging ratios within [0.8, 1.2] as good matches.
func (e *Engine) Validate(csvPath string, year int) (*ValidationResult, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("opening reference CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"issn", "journal", "jcr_if"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("reference CSV missing column %q", required)
		}
	}

	res := &ValidationResult{Year: year, Window: e.window()}
	for len(res.Rows) < validateSample {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		issn := strings.TrimSpace(record[col["issn"]])
		if issn == "" {
			continue
		}
		refIF, err := strconv.ParseFloat(strings.TrimSpace(record[col["jcr_if"]]), 64)
		if err != nil || refIF <= 0 {
			continue
		}

		row := ValidationRow{
			ISSN:      issn,
			Journal:   strings.TrimSpace(record[col["journal"]]),
			Reference: refIF,
		}

		jif, err := e.Compute(issn, year)
		if err != nil {
			return nil, err
		}
		if jif.Defined {
			v := jif.Value
			ratio := v / refIF
			row.Computed = &v
			row.Ratio = &ratio
			row.GoodMatch = ratio >= goodMatchLow && ratio <= goodMatchHigh
			res.Compared++
			if row.GoodMatch {
				res.GoodMatches++
			}
		}

		res.Rows = append(res.Rows, row)
		e.Log.Info().Str("issn", issn).Str("journal", row.Journal).
			Float64("reference", refIF).Bool("good_match", row.GoodMatch).
			Msg("validated")
	}

	return res, nil
}
