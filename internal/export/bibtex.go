package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matsen/citedash/internal/record"
)

// BibEntry is a record with the citation key it is exported under.
type BibEntry struct {
	Key    string
	Record record.Record
}

// AssignKeys gives each record a citation key of the form Lin2019, adding
// a, b, ... suffixes when keys collide. taken holds keys already in use and
// may be nil.
func AssignKeys(records []record.Record, taken map[string]bool) []BibEntry {
	used := make(map[string]bool, len(taken)+len(records))
	for k := range taken {
		used[k] = true
	}

	entries := make([]BibEntry, 0, len(records))
	for _, r := range records {
		base := baseKey(r)
		key := base
		for i := 0; used[key]; i++ {
			key = base + suffix(i)
		}
		used[key] = true
		entries = append(entries, BibEntry{Key: key, Record: r})
	}
	return entries
}

func baseKey(r record.Record) string {
	name := "anon"
	if len(r.Authors) > 0 {
		a := r.Authors[0]
		if a.Last != "" {
			name = a.Last
		} else if a.First != "" {
			name = a.First
		}
	}
	var b strings.Builder
	for _, c := range name {
		if c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)) {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		b.WriteString("anon")
	}
	if r.HasYear() {
		fmt.Fprintf(&b, "%d", r.Year)
	}
	return b.String()
}

// suffix maps 0, 1, ... 25, 26 to a, b, ... z, aa.
func suffix(i int) string {
	s := ""
	for {
		s = string(rune('a'+i%26)) + s
		i = i/26 - 1
		if i < 0 {
			return s
		}
	}
}

// ToBibTeX renders one entry.
func ToBibTeX(e BibEntry) string {
	r := e.Record
	kind := entryType(r)
	var b strings.Builder

	fmt.Fprintf(&b, "@%s{%s,\n", kind, e.Key)
	if len(r.Authors) > 0 {
		field(&b, "author", formatAuthors(r.Authors))
	}
	field(&b, "title", escapeLatex(r.Title))

	if venue := r.Venue; venue != "" {
		switch kind {
		case "inproceedings":
			field(&b, "booktitle", escapeLatex(venue))
		case "article":
			field(&b, "journal", escapeLatex(venue))
		case "phdthesis":
			field(&b, "school", escapeLatex(venue))
		case "techreport":
			field(&b, "institution", escapeLatex(venue))
		default:
			field(&b, "howpublished", escapeLatex(venue))
		}
	}
	if r.HasYear() {
		field(&b, "year", fmt.Sprint(r.Year))
	}
	optional(&b, "volume", r.Volume)
	optional(&b, "number", r.Issue)
	optional(&b, "pages", bibPages(r.Pages))
	optional(&b, "publisher", escapeLatex(r.Publisher))
	optional(&b, "doi", r.DOI)
	if r.URL != "" && r.DOI == "" {
		field(&b, "url", r.URL)
	}
	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList renders entries separated by blank lines.
func ToBibTeXList(entries []BibEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, ToBibTeX(e))
	}
	return strings.Join(parts, "\n")
}

// bibPages writes a single-hyphen page range with an en dash.
func bibPages(p string) string {
	if strings.Contains(p, "--") {
		return p
	}
	return strings.ReplaceAll(p, "-", "--")
}

func field(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "  %s = {%s},\n", name, value)
}

func optional(b *strings.Builder, name, value string) {
	if value != "" {
		field(b, name, value)
	}
}

// entryType maps the citation type onto a BibTeX entry type.
func entryType(r record.Record) string {
	switch record.CitationType(r) {
	case record.TypeConference:
		return "inproceedings"
	case record.TypeThesis:
		return "phdthesis"
	case record.TypeReport:
		return "techreport"
	case record.TypeJournal:
		return "article"
	}
	return "misc"
}

// formatAuthors joins authors BibTeX style: "Lin, Peirong and Pan, Ming".
func formatAuthors(authors []record.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		switch {
		case a.Last != "" && a.First != "":
			names = append(names, escapeLatex(a.Last+", "+a.First))
		case a.Last != "":
			names = append(names, escapeLatex(a.Last))
		case a.First != "":
			names = append(names, escapeLatex(a.First))
		}
	}
	return strings.Join(names, " and ")
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// escapeLatex escapes LaTeX special characters.
func escapeLatex(s string) string {
	return latexReplacer.Replace(s)
}
