package aggregate

import (
	"math"
	"sort"

	"github.com/matsen/citedash/internal/record"
)

// DefaultRecentYear is the first year counted as "recent".
const DefaultRecentYear = 2020

// HighImpactThreshold is the citation count above which a record is high impact.
const HighImpactThreshold = 100

// Metrics are the headline numbers of a dashboard.
type Metrics struct {
	TotalRecords       int     `json:"total_records"`
	TotalCitations     int     `json:"total_citations"`
	AvgCitations       float64 `json:"avg_citations"`
	HIndex             int     `json:"h_index"`
	ImplementationRate float64 `json:"implementation_rate"`
	MostCited          int     `json:"most_cited"`
	WithDOI            int     `json:"with_doi"`
	HighImpact         int     `json:"high_impact"`
	Recent             int     `json:"recent"`
	Watersheds         int     `json:"watersheds"`
	TotalReferences    int     `json:"total_references"`
	EngagementScore    float64 `json:"engagement_score"`
}

// ComputeImpact derives Metrics from records. recentYear <= 0 uses
// DefaultRecentYear.
func ComputeImpact(records []record.Record, recentYear int) Metrics {
	if recentYear <= 0 {
		recentYear = DefaultRecentYear
	}

	m := Metrics{TotalRecords: len(records)}
	counts := make([]int, 0, len(records))
	implemented := 0
	watersheds := make(map[string]bool)

	for _, r := range records {
		counts = append(counts, r.CitationCount)
		m.TotalCitations += r.CitationCount
		m.TotalReferences += r.ReferenceCount
		if r.CitationCount > m.MostCited {
			m.MostCited = r.CitationCount
		}
		if r.CitationCount > HighImpactThreshold {
			m.HighImpact++
		}
		if r.DOI != "" {
			m.WithDOI++
		}
		if r.HasYear() && r.Year >= recentYear {
			m.Recent++
		}
		if r.EngagementLevel.IsImplementation() {
			implemented++
		}
		if w := record.SingleValue(r.Watershed); w != "" {
			watersheds[w] = true
		}
	}

	m.HIndex = HIndex(counts)
	m.Watersheds = len(watersheds)
	m.EngagementScore = EngagementScore(records)
	if m.TotalRecords > 0 {
		m.AvgCitations = round1(float64(m.TotalCitations) / float64(m.TotalRecords))
		m.ImplementationRate = round1(float64(implemented) / float64(m.TotalRecords) * 100)
	}
	return m
}

// HIndex returns the largest h such that h of the counts are each >= h.
// counts is not modified.
func HIndex(counts []int) int {
	sorted := append([]int(nil), counts...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	h := 0
	for i, c := range sorted {
		if c < i+1 {
			break
		}
		h = i + 1
	}
	return h
}

// Baseline is a prior-period view of the headline metrics.
type Baseline struct {
	TotalCitations     int     `json:"total_citations"`
	HIndex             int     `json:"h_index"`
	ImplementationRate float64 `json:"implementation_rate"`
	Watersheds         int     `json:"watersheds"`
}

// SyntheticBaseline invents a previous period from the current metrics.
// It has no temporal data behind it and is only used when no stored
// snapshot exists.
func SyntheticBaseline(m Metrics) Baseline {
	return Baseline{
		TotalCitations:     int(math.Round(float64(m.TotalCitations) * 0.89)),
		HIndex:             max(m.HIndex-2, 0),
		ImplementationRate: math.Max(m.ImplementationRate-4.7, 0),
		Watersheds:         max(m.Watersheds-8, 0),
	}
}

// Trend is the change of one metric against its baseline.
type Trend struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"` // "percent" or "points" or "count"
	Up    bool    `json:"up"`
}

// Trends holds the deltas shown next to the headline metrics.
type Trends struct {
	Citations          Trend `json:"citations"`
	HIndex             Trend `json:"h_index"`
	ImplementationRate Trend `json:"implementation_rate"`
	Watersheds         Trend `json:"watersheds"`
	Synthetic          bool  `json:"synthetic"`
}

// ComputeTrends compares m with prev. A nil prev falls back to
// SyntheticBaseline and marks the result Synthetic. Citations change is a
// percentage of the baseline (0 when the baseline is 0); the implementation
// rate changes in percentage points; h-index and watersheds in counts.
func ComputeTrends(m Metrics, prev *Baseline) Trends {
	var t Trends
	if prev == nil {
		b := SyntheticBaseline(m)
		prev = &b
		t.Synthetic = true
	}

	citations := 0.0
	if prev.TotalCitations > 0 {
		citations = round1(float64(m.TotalCitations-prev.TotalCitations) / float64(prev.TotalCitations) * 100)
	}
	t.Citations = trend(citations, "percent")
	t.HIndex = trend(float64(m.HIndex-prev.HIndex), "count")
	t.ImplementationRate = trend(round1(m.ImplementationRate-prev.ImplementationRate), "points")
	t.Watersheds = trend(float64(m.Watersheds-prev.Watersheds), "count")
	return t
}

func trend(v float64, unit string) Trend {
	return Trend{Value: v, Unit: unit, Up: v >= 0}
}
