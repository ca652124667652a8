// Package aggregate turns normalized bibliographic records into the derived
// metrics shown on a dashboard. Every function here is a pure function of its
// input slice: nothing is mutated, nothing is logged, and degenerate input
// yields an empty (never nil-panicking) result.
package aggregate

import (
	"fmt"
	"math"

	"github.com/matsen/citedash/internal/record"
)

// Default year range of the dashboards.
const (
	DefaultStartYear = 2011
	DefaultEndYear   = 2025
)

// Bounds of any yearly series. Ranges are clipped to them.
const (
	MinYear = 1900
	MaxYear = 2100
)

// CheckYearRange reports whether [start, end] is an ordered range inside
// [MinYear, MaxYear].
func CheckYearRange(start, end int) error {
	if start < MinYear || end > MaxYear {
		return fmt.Errorf("years must be between %d and %d, got %d-%d", MinYear, MaxYear, start, end)
	}
	if start > end {
		return fmt.Errorf("start %d after end %d", start, end)
	}
	return nil
}

// YearlyPoint is one year of the citation time series.
type YearlyPoint struct {
	Year                int  `json:"year"`
	Annual              int  `json:"annual"`
	Cumulative          int  `json:"cumulative"`
	PeerReviewed        int  `json:"peer_reviewed"`
	Other               int  `json:"other"`
	Citations           int  `json:"citations"`
	CumulativeCitations int  `json:"cumulative_citations"`
	GrowthRate          *int `json:"growth_rate,omitempty"` // Percent change of Annual vs. previous year
}

// ByYear builds one point per year in [startYear, endYear], ascending. Only
// records with a resolved year inside the range contribute; years without
// records appear with Annual 0 and Cumulative carried forward. The range is
// clipped to [MinYear, MaxYear].
func ByYear(records []record.Record, startYear, endYear int) []YearlyPoint {
	startYear = max(startYear, MinYear)
	endYear = min(endYear, MaxYear)
	if startYear > endYear {
		return []YearlyPoint{}
	}

	points := make([]YearlyPoint, endYear-startYear+1)
	for i := range points {
		points[i].Year = startYear + i
	}

	for _, r := range records {
		if !r.HasYear() || r.Year < startYear || r.Year > endYear {
			continue
		}
		p := &points[r.Year-startYear]
		p.Annual++
		p.Citations += r.CitationCount
		if record.IsPeerReviewed(r) {
			p.PeerReviewed++
		}
	}

	cumulative, cumulativeCitations := 0, 0
	for i := range points {
		p := &points[i]
		p.Other = p.Annual - p.PeerReviewed
		cumulative += p.Annual
		cumulativeCitations += p.Citations
		p.Cumulative = cumulative
		p.CumulativeCitations = cumulativeCitations

		if i > 0 && points[i-1].Annual > 0 {
			prev := points[i-1].Annual
			rate := int(math.Round(float64(p.Annual-prev) / float64(prev) * 100))
			p.GrowthRate = &rate
		}
	}

	return points
}

// YearSpan returns the smallest and largest resolved year in records.
// ok is false when no record has a year.
func YearSpan(records []record.Record) (first, last int, ok bool) {
	for _, r := range records {
		if !r.HasYear() {
			continue
		}
		if !ok || r.Year < first {
			first = r.Year
		}
		if !ok || r.Year > last {
			last = r.Year
		}
		ok = true
	}
	return first, last, ok
}
