package record

import (
	"html"
	"regexp"
	"strings"
)

// venueDenylist holds tokens that mark a venue string as a placeholder or
// aggregator rather than a real journal. Matching is case-insensitive
// substring.
var venueDenylist = []string{
	"doi",
	"arxiv",
	"unknown",
	"not specified",
	"n/a",
	"null",
	"undefined",
	"preprint",
	"researchgate",
	"academia.edu",
	"crossref",
}

// ResolveYear returns the publication year using the first present source:
// year, published, published-online, published-print.
func (r RawRecord) ResolveYear() (int, bool) {
	if r.Year.Set && r.Year.Value > 0 {
		return r.Year.Value, true
	}
	for _, d := range []*DateParts{r.Published, r.PublishedOnline, r.PublishedPrint} {
		if y, ok := d.Year(); ok {
			return y, true
		}
	}
	return 0, false
}

// ResolveCitationCount returns the first present of is-referenced-by-count,
// cites, citations (then citation_count, our own field name); 0 otherwise.
// Negative counts clamp to 0.
func (r RawRecord) ResolveCitationCount() int {
	for _, c := range []FlexibleInt{r.ReferencedByCount, r.Cites, r.Citations, r.CitationCount} {
		if c.Set {
			if c.Value < 0 {
				return 0
			}
			return c.Value
		}
	}
	return 0
}

// rawVenue returns the first non-empty venue candidate, undecoded.
func (r RawRecord) rawVenue() string {
	candidates := []string{r.ContainerTitle.String()}
	if r.Journal != nil {
		candidates = append(candidates, r.Journal.Name)
	}
	candidates = append(candidates, r.Source.String(), r.JournalTitle.String(), r.Venue.String())

	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// ResolveVenue returns the decoded journal name, or "" when missing or when
// it matches the denylist.
func (r RawRecord) ResolveVenue() string {
	return CleanVenue(r.rawVenue())
}

// CleanVenue decodes HTML entities and rejects denylisted venue names.
func CleanVenue(name string) string {
	decoded := strings.TrimSpace(html.UnescapeString(name))
	if decoded == "" {
		return ""
	}
	lower := strings.ToLower(decoded)
	for _, token := range venueDenylist {
		if strings.Contains(lower, token) {
			return ""
		}
	}
	return decoded
}

var (
	jatsTag    = regexp.MustCompile(`</?jats:[^>]*>`)
	anyTag     = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// CleanAbstract strips JATS and HTML markup and collapses whitespace.
func CleanAbstract(s string) string {
	if s == "" {
		return ""
	}
	s = jatsTag.ReplaceAllString(s, "")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Normalizer converts raw records to Records.
type Normalizer struct {
	// ModelName, when set, flags records whose title mentions it together
	// with "routing" or "model" as original papers.
	ModelName string
}

// Normalize resolves every field of a raw record. Missing fields degrade to
// defaults; it never fails.
func (n Normalizer) Normalize(raw RawRecord) Record {
	title := strings.TrimSpace(html.UnescapeString(raw.Title.String()))
	if title == "" {
		title = "Untitled"
	}

	authors := []Author(raw.Author)
	if len(authors) == 0 {
		authors = []Author(raw.Authors)
	}

	year, _ := raw.ResolveYear()

	doi := strings.TrimSpace(raw.DOI.String())
	url := strings.TrimSpace(raw.URL.String())
	if url == "" && doi != "" {
		url = "https://doi.org/" + doi
	}

	pages := raw.Page.String()
	if pages == "" {
		pages = raw.Pages.String()
	}

	refCount := 0
	for _, c := range []FlexibleInt{raw.ReferencesCount, raw.ReferenceCount, raw.RefCount} {
		if c.Set {
			refCount = max(c.Value, 0)
			break
		}
	}

	rec := Record{
		Title:           title,
		Authors:         authors,
		Abstract:        CleanAbstract(raw.Abstract),
		Venue:           raw.ResolveVenue(),
		Source:          strings.TrimSpace(html.UnescapeString(raw.rawVenue())),
		Publisher:       strings.TrimSpace(raw.Publisher.String()),
		Type:            strings.TrimSpace(raw.Type.String()),
		DOI:             doi,
		URL:             url,
		Volume:          raw.Volume.String(),
		Issue:           raw.Issue.String(),
		Pages:           pages,
		Year:            year,
		CitationCount:   raw.ResolveCitationCount(),
		ReferenceCount:  refCount,
		ResearchDomain:  classificationOrUnknown(raw.ResearchDomain.String()),
		EngagementLevel: ParseEngagementLevel(raw.EngagementLevel.String()),
		Watershed:       classificationOrUnknown(raw.Watershed.String()),
		Country:         classificationOrUnknown(raw.Country.String()),
	}
	rec.IsOriginalPaper = n.IsOriginal(rec.Title)
	return rec
}

// NormalizeAll normalizes a slice of raw records.
func (n Normalizer) NormalizeAll(raws []RawRecord) []Record {
	out := make([]Record, len(raws))
	for i, raw := range raws {
		out[i] = n.Normalize(raw)
	}
	return out
}

// IsOriginal reports whether a title names the model together with
// "routing" or "model".
func (n Normalizer) IsOriginal(title string) bool {
	if n.ModelName == "" {
		return false
	}
	t := strings.ToLower(title)
	return strings.Contains(t, strings.ToLower(n.ModelName)) &&
		(strings.Contains(t, "routing") || strings.Contains(t, "model"))
}

func classificationOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return "Unknown"
	}
	return s
}
