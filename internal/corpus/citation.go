package corpus

import (
	"fmt"
	"strings"
)

// bibtexEntryTypes maps OpenAlex work types to BibTeX entry types.
var bibtexEntryTypes = map[string]string{
	"book":                "book",
	"book-chapter":        "incollection",
	"proceedings":         "inproceedings",
	"proceedings-article": "inproceedings",
	"dissertation":        "phdthesis",
	"report":              "techreport",
}

// CitationAPA formats the work as an APA-style citation string.
func (w *Work) CitationAPA() string {
	var parts []string

	if len(w.Authors) > 0 {
		parts = append(parts, formatAuthorsAPA(w.Authors))
	}
	if w.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d)", w.Year))
	}
	if w.Title != "" {
		parts = append(parts, w.Title+".")
	}
	if w.Source != "" {
		src := "*" + w.Source + "*"
		if w.Volume != "" {
			src += ", *" + w.Volume + "*"
			if w.Issue != "" {
				src += "(" + w.Issue + ")"
			}
		}
		if p := w.Pages(); p != "" {
			src += ", " + p
		}
		parts = append(parts, src+".")
	}
	if w.DOI != "" {
		parts = append(parts, "https://doi.org/"+w.DOI)
	}

	return strings.Join(parts, " ")
}

// CitationBibTeX formats the work as a BibTeX entry keyed by OpenAlex ID.
func (w *Work) CitationBibTeX() string {
	entryType := "article"
	if t, ok := bibtexEntryTypes[w.Type]; ok {
		entryType = t
	}

	key := w.OpenAlexID
	if key == "" {
		key = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, key)

	writeField := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %s = {%s},\n", name, value)
		}
	}

	writeField("title", w.Title)
	writeField("author", strings.Join(w.Authors, " and "))
	if w.Year > 0 {
		writeField("year", fmt.Sprintf("%d", w.Year))
	}
	switch entryType {
	case "incollection", "inproceedings":
		writeField("booktitle", w.Source)
	default:
		writeField("journal", w.Source)
	}
	writeField("volume", w.Volume)
	writeField("number", w.Issue)
	writeField("pages", w.Pages())
	writeField("publisher", w.Publisher)
	writeField("doi", w.DOI)
	writeField("url", w.OAURL)

	b.WriteString("}")
	return b.String()
}

// formatAuthorAPA converts "First Middle Last" to "Last, F. M.".
func formatAuthorAPA(name string) string {
	parts := strings.Fields(name)
	if len(parts) <= 1 {
		return name
	}
	last := parts[len(parts)-1]
	var initials []string
	for _, p := range parts[:len(parts)-1] {
		initials = append(initials, string([]rune(p)[0])+".")
	}
	return last + ", " + strings.Join(initials, " ")
}

func formatAuthorsAPA(authors []string) string {
	switch len(authors) {
	case 1:
		return formatAuthorAPA(authors[0])
	case 2:
		return formatAuthorAPA(authors[0]) + " & " + formatAuthorAPA(authors[1])
	}

	// APA 7th: up to 20 authors; with more, first 19 then ellipsis then last.
	formatted := make([]string, 0, len(authors))
	for _, a := range authors {
		formatted = append(formatted, formatAuthorAPA(a))
	}
	if len(formatted) > 20 {
		formatted = append(formatted[:19], "...", formatted[len(formatted)-1])
	}
	return strings.Join(formatted[:len(formatted)-1], ", ") + ", & " + formatted[len(formatted)-1]
}
