package snapshot

import (
	"sort"
	"strings"

	"github.com/matsen/oalex/internal/corpus"
)

const (
	openAlexPrefix = "https://openalex.org/"
	doiPrefix      = "https://doi.org/"

	maxConcepts = 5
	maxTopics   = 3
)

// StripOpenAlexID reduces a full OpenAlex URI to its bare identifier.
func StripOpenAlexID(id string) string {
	return strings.TrimPrefix(id, openAlexPrefix)
}

// StripDOI reduces a DOI URI to the bare DOI.
func StripDOI(doi string) string {
	return strings.TrimPrefix(doi, doiPrefix)
}

// ReconstructAbstract rebuilds abstract text from the inverted index the
// snapshot ships instead of plain text. Word positions are flattened to
// (position, word) pairs, sorted by position (ties broken by word so the
// result is deterministic), and joined with single spaces. Missing or empty
// index yields nil, matching the corpus convention for absent abstracts.
func ReconstructAbstract(inverted map[string][]int) *string {
	if len(inverted) == 0 {
		return nil
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range inverted {
		for _, p := range positions {
			pairs = append(pairs, posWord{pos: p, word: word})
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	text := strings.Join(words, " ")
	return &text
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// NormalizeWork flattens a raw snapshot record into a corpus row: URI
// prefixes stripped, abstract reconstructed, venue fields hoisted from
// primary_location, concepts and topics capped at the most relevant few.
func NormalizeWork(rec *WorkRecord) corpus.Work {
	w := corpus.Work{
		OpenAlexID:      StripOpenAlexID(rec.ID),
		DOI:             StripDOI(str(rec.DOI)),
		Title:           str(rec.Title),
		Abstract:        ReconstructAbstract(rec.AbstractInvertedIndex),
		Year:            num(rec.PublicationYear),
		PublicationDate: str(rec.PublicationDate),
		Type:            str(rec.Type),
		Language:        str(rec.Language),
		CitedByCount:    num(rec.CitedByCount),
	}
	if w.Title == "" {
		w.Title = str(rec.DisplayName)
	}

	if loc := rec.PrimaryLocation; loc != nil && loc.Source != nil {
		src := loc.Source
		w.Source = str(src.DisplayName)
		w.SourceID = StripOpenAlexID(str(src.ID))
		if len(src.ISSN) > 0 {
			w.ISSN = src.ISSN[0]
		}
		w.Publisher = str(src.HostOrganizationName)
	}

	if b := rec.Biblio; b != nil {
		w.Volume = str(b.Volume)
		w.Issue = str(b.Issue)
		w.FirstPage = str(b.FirstPage)
		w.LastPage = str(b.LastPage)
	}

	if oa := rec.OpenAccess; oa != nil {
		w.IsOA = oa.IsOA
		w.OAStatus = str(oa.OAStatus)
		w.OAURL = str(oa.OAURL)
	}

	for _, a := range rec.Authorships {
		if name := str(a.Author.DisplayName); name != "" {
			w.Authors = append(w.Authors, name)
		}
	}

	for _, c := range rec.Concepts {
		if len(w.Concepts) == maxConcepts {
			break
		}
		if name := str(c.DisplayName); name != "" {
			score := 0.0
			if c.Score != nil {
				score = *c.Score
			}
			w.Concepts = append(w.Concepts, corpus.Concept{Name: name, Score: score})
		}
	}

	for _, t := range rec.Topics {
		if len(w.Topics) == maxTopics {
			break
		}
		name := str(t.DisplayName)
		if name == "" {
			continue
		}
		topic := corpus.Topic{Name: name}
		if t.Subfield != nil {
			topic.Subfield = str(t.Subfield.DisplayName)
		}
		if t.Field != nil {
			topic.Field = str(t.Field.DisplayName)
		}
		w.Topics = append(w.Topics, topic)
	}

	for _, ref := range rec.ReferencedWorks {
		w.ReferencedWorks = append(w.ReferencedWorks, StripOpenAlexID(ref))
	}
	w.RefCount = len(w.ReferencedWorks)

	return w
}

// NormalizeSource flattens a raw source record into a corpus source row.
func NormalizeSource(rec *SourceRecord) corpus.Source {
	s := corpus.Source{
		OpenAlexID:           StripOpenAlexID(rec.ID),
		ISSNL:                str(rec.ISSNL),
		ISSNs:                rec.ISSN,
		DisplayName:          str(rec.DisplayName),
		Type:                 str(rec.Type),
		HostOrganization:     str(rec.HostOrganizationName),
		CountryCode:          str(rec.CountryCode),
		HomepageURL:          str(rec.HomepageURL),
		WorksCount:           num(rec.WorksCount),
		OAWorksCount:         num(rec.OAWorksCount),
		CitedByCount:         num(rec.CitedByCount),
		IsOA:                 rec.IsOA,
		IsInDOAJ:             rec.IsInDOAJ,
		IsCore:               rec.IsCore,
		FirstPublicationYear: rec.FirstPublicationYear,
		LastPublicationYear:  rec.LastPublicationYear,
		APCUSD:               rec.APCUSD,
	}
	if ss := rec.SummaryStats; ss != nil {
		s.TwoYearMeanCitedness = ss.TwoYearMeanCitedness
		s.HIndex = ss.HIndex
		s.I10Index = ss.I10Index
	}
	return s
}
