package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/matsen/citedash/internal/record"
)

// UnclassifiedName labels the bucket of records without a usable key.
const UnclassifiedName = "Unclassified"

// Entry is one labeled bucket of a categorical distribution.
type Entry struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// KeyFunc maps a record to zero, one, or many group keys.
type KeyFunc func(record.Record) []string

// Options control a distribution's shape.
type Options struct {
	// TopN keeps only the first N entries after ordering. Dropped entries are
	// not merged into an "other" bucket. 0 keeps all.
	TopN int

	// IncludeUnclassified appends an Unclassified bucket counting records that
	// produced no key. Its percentage is relative to all records; classified
	// buckets are relative to classified records only.
	IncludeUnclassified bool

	// Order fixes the position of the named entries. Names absent from Order
	// follow in descending-count order. Entries with zero count are omitted.
	Order []string
}

// ByField groups records by the keys extract returns. Keys that are empty or
// placeholders ("Unknown", "Not specified") are dropped; a record whose keys
// are all dropped is unclassified and excluded from the percentage
// denominator. A record contributes one count to each distinct key it yields.
//
// Entries are ordered by descending count, ties keeping first-encountered
// order, unless opts.Order says otherwise.
func ByField(records []record.Record, extract KeyFunc, opts Options) []Entry {
	counts := make(map[string]int)
	var order []string
	classified, unclassified := 0, 0

	for _, r := range records {
		keys := usableKeys(extract(r))
		if len(keys) == 0 {
			unclassified++
			continue
		}
		classified++
		for _, k := range keys {
			if _, seen := counts[k]; !seen {
				order = append(order, k)
			}
			counts[k]++
		}
	}

	entries := make([]Entry, 0, len(order)+1)
	for _, name := range order {
		entries = append(entries, Entry{
			Name:       name,
			Count:      counts[name],
			Percentage: percentage(counts[name], classified),
		})
	}

	sortEntries(entries, opts.Order)

	if opts.TopN > 0 && len(entries) > opts.TopN {
		entries = entries[:opts.TopN]
	}

	if opts.IncludeUnclassified && unclassified > 0 {
		entries = append(entries, Entry{
			Name:       UnclassifiedName,
			Count:      unclassified,
			Percentage: percentage(unclassified, classified+unclassified),
		})
	}

	return entries
}

// usableKeys drops placeholders and duplicates from a record's keys.
func usableKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = record.NormalizeKey(k)
		if record.IsPlaceholder(k) || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// sortEntries orders entries by fixed order first, then by descending count.
// The sort is stable so equal counts keep first-encountered order.
func sortEntries(entries []Entry, fixed []string) {
	rank := make(map[string]int, len(fixed))
	for i, name := range fixed {
		rank[name] = i
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri, iFixed := rank[entries[i].Name]
		rj, jFixed := rank[entries[j].Name]
		switch {
		case iFixed && jFixed:
			return ri < rj
		case iFixed != jFixed:
			return iFixed
		}
		return entries[i].Count > entries[j].Count
	})
}

// percentage returns count/total*100 rounded to one decimal, or 0 when total
// is 0.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Key extractors for the standard dashboard distributions.

// DomainKeys splits the research domain on ',' and '/'.
func DomainKeys(r record.Record) []string { return record.SplitValues(r.ResearchDomain) }

// CountryKeys splits the country field on ',' and '/'.
func CountryKeys(r record.Record) []string { return record.SplitValues(r.Country) }

// WatershedKeys uses the watershed string as a single key.
func WatershedKeys(r record.Record) []string { return single(record.SingleValue(r.Watershed)) }

// VenueKeys uses the resolved (denylist-filtered) venue.
func VenueKeys(r record.Record) []string { return single(r.Venue) }

// CitationTypeKeys classifies the record into a citation-type bucket.
func CitationTypeKeys(r record.Record) []string { return single(record.CitationType(r)) }

// EngagementKeys yields the engagement label, or nothing when unclassified.
func EngagementKeys(r record.Record) []string {
	if !r.EngagementLevel.Classified() {
		return nil
	}
	return single(r.EngagementLevel.String())
}

func single(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// Domains is the top-10 research-domain distribution.
func Domains(records []record.Record) []Entry {
	return ByField(records, DomainKeys, Options{TopN: 10})
}

// Journals is the top-15 journal distribution.
func Journals(records []record.Record) []Entry {
	return ByField(records, VenueKeys, Options{TopN: 15})
}

// Countries is the country distribution (each listed country counted in full).
func Countries(records []record.Record) []Entry {
	return ByField(records, CountryKeys, Options{})
}

// Watersheds is the watershed distribution.
func Watersheds(records []record.Record) []Entry {
	return ByField(records, WatershedKeys, Options{})
}

// CitationTypes is the citation-type distribution in canonical order.
func CitationTypes(records []record.Record) []Entry {
	return ByField(records, CitationTypeKeys, Options{Order: record.CitationTypeOrder})
}

// Engagement is the engagement-level distribution, always in
// Level1..Level4 order followed by the Unclassified bucket.
func Engagement(records []record.Record) []Entry {
	order := make([]string, 0, len(record.EngagementOrder))
	for _, l := range record.EngagementOrder {
		order = append(order, l.String())
	}
	return ByField(records, EngagementKeys, Options{Order: order, IncludeUnclassified: true})
}

// EngagementScore is the mean engagement level (1-4) over classified
// records, rounded to two decimals. 0 when nothing is classified.
func EngagementScore(records []record.Record) float64 {
	total, n := 0, 0
	for _, r := range records {
		if r.EngagementLevel.Classified() {
			total += int(r.EngagementLevel)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(n)*100) / 100
}

// DefaultDomainKeywords maps research domains to title/abstract keywords.
var DefaultDomainKeywords = map[string][]string{
	"River Modeling":   {"river", "routing", "channel", "network", "stream", "hydraulic"},
	"Water Resources":  {"water", "resources", "hydro", "reservoir", "management", "supply"},
	"Flow Analysis":    {"flow", "discharge", "runoff", "streamflow", "velocity", "volume"},
	"Flood Prediction": {"flood", "inundation", "prediction", "forecast", "warning", "risk"},
	"Streamflow":       {"streamflow", "stream", "measurement", "gauge", "monitoring"},
}

// KeywordDomains counts, for each domain, the records whose title or
// abstract contains any of its keywords. A record may count toward several
// domains. Percentages are relative to all records.
func KeywordDomains(records []record.Record, keywords map[string][]string) []Entry {
	names := make([]string, 0, len(keywords))
	for name := range keywords {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		count := 0
		for _, r := range records {
			text := strings.ToLower(r.Title + " " + r.Abstract)
			for _, kw := range keywords[name] {
				if strings.Contains(text, strings.ToLower(kw)) {
					count++
					break
				}
			}
		}
		entries = append(entries, Entry{Name: name, Count: count, Percentage: percentage(count, len(records))})
	}

	sortEntries(entries, nil)
	return entries
}
