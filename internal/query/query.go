// Package query filters and sorts records for the citations table.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/citedash/internal/author"
	"github.com/matsen/citedash/internal/record"
)

// Filter selects records. Every non-zero field must match (AND logic).
type Filter struct {
	Search     string                 // Case-insensitive substring over the text fields
	Authors    []author.Query         // Each query must match some author
	Engagement record.EngagementLevel // Unclassified = any level
	Domains    []string               // Any listed domain (OR)
	Watersheds []string               // Any listed watershed (OR)
	Country    string                 // Substring of the country field
	YearFrom   int                    // 0 = no minimum
	YearTo     int                    // 0 = no maximum
}

// IsZero reports whether f matches everything.
func (f Filter) IsZero() bool {
	return f.Search == "" && len(f.Authors) == 0 && f.Engagement == record.Unclassified &&
		len(f.Domains) == 0 && len(f.Watersheds) == 0 && f.Country == "" &&
		f.YearFrom == 0 && f.YearTo == 0
}

// Match reports whether r passes the filter. A record with an unknown year
// always passes the year range.
func (f Filter) Match(r record.Record) bool {
	if f.Search != "" && !containsFold(searchText(r), f.Search) {
		return false
	}
	if !author.AllMatch(f.Authors, r.Authors) {
		return false
	}
	if f.Engagement != record.Unclassified && r.EngagementLevel != f.Engagement {
		return false
	}
	if len(f.Domains) > 0 && !anyShared(f.Domains, record.SplitValues(r.ResearchDomain)) {
		return false
	}
	if len(f.Watersheds) > 0 && !anyShared(f.Watersheds, []string{r.Watershed}) {
		return false
	}
	if f.Country != "" && !containsFold(r.Country, f.Country) {
		return false
	}
	if r.HasYear() {
		if f.YearFrom > 0 && r.Year < f.YearFrom {
			return false
		}
		if f.YearTo > 0 && r.Year > f.YearTo {
			return false
		}
	}
	return true
}

// Apply returns the records that pass f, in input order.
func Apply(records []record.Record, f Filter) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func searchText(r record.Record) string {
	return strings.Join([]string{
		r.Title,
		record.FormatAuthors(r.Authors, 0),
		r.Venue,
		r.Source,
		r.Publisher,
		r.Abstract,
		r.DOI,
		r.ResearchDomain,
		r.Watershed,
		r.Country,
	}, "\n")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

func anyShared(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(w), strings.TrimSpace(h)) {
				return true
			}
		}
	}
	return false
}

// SortField names a sortable column.
type SortField string

// Sortable columns.
const (
	SortTitle          SortField = "title"
	SortYear           SortField = "year"
	SortCitations      SortField = "citations"
	SortEngagement     SortField = "engagement"
	SortDomain         SortField = "domain"
	SortReferenceCount SortField = "reference_count"
)

// ParseSortField validates a column name. Empty selects SortCitations.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortCitations, nil
	case SortTitle, SortYear, SortCitations, SortEngagement, SortDomain, SortReferenceCount:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// Sort orders records in place by field, stable. Unknown years sort as 0.
func Sort(records []record.Record, field SortField, desc bool) {
	less := func(a, b record.Record) bool {
		switch field {
		case SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortYear:
			return a.Year < b.Year
		case SortEngagement:
			return a.EngagementLevel < b.EngagementLevel
		case SortDomain:
			return strings.ToLower(a.ResearchDomain) < strings.ToLower(b.ResearchDomain)
		case SortReferenceCount:
			return a.ReferenceCount < b.ReferenceCount
		default:
			return a.CitationCount < b.CitationCount
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

// Field names accepted by UniqueValues.
const (
	FieldDomain    = "domain"
	FieldWatershed = "watershed"
	FieldCountry   = "country"
	FieldVenue     = "venue"
)

// UniqueValues lists the distinct values of a multi-valued field, with
// placeholders removed, sorted case-insensitively. Used to populate filter
// choices.
func UniqueValues(records []record.Record, field string) ([]string, error) {
	var extract func(record.Record) []string
	switch field {
	case FieldDomain:
		extract = func(r record.Record) []string { return record.SplitValues(r.ResearchDomain) }
	case FieldWatershed:
		extract = func(r record.Record) []string { return nonEmpty(record.SingleValue(r.Watershed)) }
	case FieldCountry:
		extract = func(r record.Record) []string { return record.SplitValues(r.Country) }
	case FieldVenue:
		extract = func(r record.Record) []string { return nonEmpty(r.Venue) }
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}

	seen := make(map[string]bool)
	values := []string{}
	for _, r := range records {
		for _, v := range extract(r) {
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
	}
	sort.Slice(values, func(i, j int) bool {
		return strings.ToLower(values[i]) < strings.ToLower(values[j])
	})
	return values, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
