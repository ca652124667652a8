package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/citedash/internal/aggregate"
	"github.com/matsen/citedash/internal/query"
	"github.com/matsen/citedash/internal/record"
	"github.com/matsen/citedash/internal/storage"
)

// ErrUnknownField is returned for an unsupported distribution field.
var ErrUnknownField = errors.New("unknown distribution field")

// DistributionFields lists the fields Distribution accepts.
var DistributionFields = []string{"domain", "journal", "engagement", "type", "country", "watershed", "keyword"}

// Distribution computes the named categorical distribution. top > 0
// truncates the result after ordering.
func (d *Dashboard) Distribution(field string, top int) ([]aggregate.Entry, error) {
	var entries []aggregate.Entry
	switch strings.ToLower(field) {
	case "domain", "domains":
		entries = aggregate.Domains(d.records)
	case "journal", "journals", "venue":
		entries = aggregate.Journals(d.records)
	case "engagement":
		entries = aggregate.Engagement(d.records)
	case "type", "types":
		entries = aggregate.CitationTypes(d.records)
	case "country", "countries":
		entries = aggregate.Countries(d.records)
	case "watershed", "watersheds":
		entries = aggregate.Watersheds(d.records)
	case "keyword", "keywords":
		entries = aggregate.KeywordDomains(d.records, aggregate.DefaultDomainKeywords)
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownField, field, strings.Join(DistributionFields, ", "))
	}
	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}
	return entries, nil
}

// Citations filters and sorts the dashboard's records. The result is a
// fresh slice.
func (d *Dashboard) Citations(f query.Filter, sortBy query.SortField, desc bool) []record.Record {
	out := query.Apply(d.records, f)
	query.Sort(out, sortBy, desc)
	return out
}

// Values lists the distinct values of a filterable field (domain,
// watershed, country, venue).
func (d *Dashboard) Values(field string) ([]string, error) {
	return query.UniqueValues(d.records, field)
}

// BaselineSource finds the most recent stored metrics of a dashboard.
type BaselineSource interface {
	LatestBefore(dashboard string, t time.Time) (*storage.Snapshot, error)
}

// Summary is the headline view of a dashboard.
type Summary struct {
	Dashboard Info              `json:"dashboard"`
	Metrics   aggregate.Metrics `json:"metrics"`
	Trends    aggregate.Trends  `json:"trends"`
	Baseline  *storage.Snapshot `json:"baseline,omitempty"`
	Message   string            `json:"message,omitempty"`
	Engaged   []aggregate.Entry `json:"engagement"`
	Types     []aggregate.Entry `json:"citation_types"`
}

// Summary computes metrics and trends. Trends compare against the latest
// snapshot taken before now; without one (or without a store) they fall
// back to the synthetic baseline.
func (d *Dashboard) Summary(store BaselineSource, now time.Time) (Summary, error) {
	m := d.Metrics()
	s := Summary{
		Dashboard: d.Info(),
		Metrics:   m,
		Engaged:   aggregate.Engagement(d.records),
		Types:     aggregate.CitationTypes(d.records),
	}
	if d.Fallback {
		s.Message = DemoMessage
	}

	var prev *aggregate.Baseline
	if store != nil {
		snap, err := store.LatestBefore(d.Name, now)
		switch {
		case errors.Is(err, storage.ErrNoSnapshot):
		case err != nil:
			return Summary{}, fmt.Errorf("loading baseline: %w", err)
		default:
			b := snap.Baseline()
			prev = &b
			s.Baseline = snap
		}
	}
	s.Trends = aggregate.ComputeTrends(m, prev)
	return s, nil
}
