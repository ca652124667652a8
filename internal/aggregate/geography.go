package aggregate

import (
	"sort"
	"strings"

	"github.com/matsen/citedash/internal/record"
)

// WatershedStat summarizes the records attached to one watershed.
type WatershedStat struct {
	Name             string   `json:"name"`
	Papers           int      `json:"papers"`
	Citations        int      `json:"citations"`
	Countries        []string `json:"countries"`
	Domains          []string `json:"domains"`
	EngagementLevels []string `json:"engagement_levels"`
	FirstYear        int      `json:"first_year,omitempty"`
	LastYear         int      `json:"last_year,omitempty"`
}

// CountryStat summarizes the records attached to one country. Papers and
// Citations are fractional: a record listing k countries adds 1/k paper and
// citations/k to each.
type CountryStat struct {
	Name       string   `json:"name"`
	Papers     float64  `json:"papers"`
	Citations  float64  `json:"citations"`
	Watersheds []string `json:"watersheds"`
	Domains    []string `json:"domains"`
}

// Geography holds both rollups, each sorted by descending paper count.
type Geography struct {
	ByWatershed []WatershedStat `json:"by_watershed"`
	ByCountry   []CountryStat   `json:"by_country"`
}

// orderedSet keeps distinct strings in first-seen order.
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) list() []string {
	if len(s.items) == 0 {
		return []string{}
	}
	return append([]string(nil), s.items...)
}

type watershedAcc struct {
	stat      WatershedStat
	countries orderedSet
	domains   orderedSet
	levels    orderedSet
}

type countryAcc struct {
	stat       CountryStat
	watersheds orderedSet
	domains    orderedSet
}

// AggregateGeography builds the watershed and country rollups. Records
// missing a watershed or a country (or holding a placeholder) are skipped.
//
// The two rollups attribute records differently on purpose: a watershed
// receives each record whole, while a country receives 1/k of a record that
// lists k countries.
func AggregateGeography(records []record.Record) Geography {
	watersheds := make(map[string]*watershedAcc)
	var watershedOrder []string
	countries := make(map[string]*countryAcc)
	var countryOrder []string

	for _, r := range records {
		watershed := record.SingleValue(r.Watershed)
		countryKeys := record.SplitValues(r.Country)
		if watershed == "" || len(countryKeys) == 0 {
			continue
		}
		domains := record.SplitValues(r.ResearchDomain)

		w, ok := watersheds[watershed]
		if !ok {
			w = &watershedAcc{stat: WatershedStat{Name: watershed}}
			watersheds[watershed] = w
			watershedOrder = append(watershedOrder, watershed)
		}
		w.stat.Papers++
		w.stat.Citations += r.CitationCount
		for _, c := range countryKeys {
			w.countries.add(c)
		}
		for _, d := range domains {
			w.domains.add(d)
		}
		if r.EngagementLevel.Classified() {
			w.levels.add(r.EngagementLevel.String())
		}
		if r.HasYear() {
			if w.stat.FirstYear == 0 || r.Year < w.stat.FirstYear {
				w.stat.FirstYear = r.Year
			}
			if r.Year > w.stat.LastYear {
				w.stat.LastYear = r.Year
			}
		}

		share := 1 / float64(len(countryKeys))
		for _, name := range countryKeys {
			c, ok := countries[name]
			if !ok {
				c = &countryAcc{stat: CountryStat{Name: name}}
				countries[name] = c
				countryOrder = append(countryOrder, name)
			}
			c.stat.Papers += share
			c.stat.Citations += float64(r.CitationCount) * share
			c.watersheds.add(watershed)
			for _, d := range domains {
				c.domains.add(d)
			}
		}
	}

	geo := Geography{
		ByWatershed: make([]WatershedStat, 0, len(watershedOrder)),
		ByCountry:   make([]CountryStat, 0, len(countryOrder)),
	}
	for _, name := range watershedOrder {
		w := watersheds[name]
		w.stat.Countries = w.countries.list()
		w.stat.Domains = w.domains.list()
		w.stat.EngagementLevels = w.levels.list()
		geo.ByWatershed = append(geo.ByWatershed, w.stat)
	}
	for _, name := range countryOrder {
		c := countries[name]
		c.stat.Watersheds = c.watersheds.list()
		c.stat.Domains = c.domains.list()
		geo.ByCountry = append(geo.ByCountry, c.stat)
	}

	sort.SliceStable(geo.ByWatershed, func(i, j int) bool {
		return geo.ByWatershed[i].Papers > geo.ByWatershed[j].Papers
	})
	sort.SliceStable(geo.ByCountry, func(i, j int) bool {
		return geo.ByCountry[i].Papers > geo.ByCountry[j].Papers
	})

	return geo
}

// Region names used for geographic filtering.
const (
	RegionNorthAmerica = "north-america"
	RegionEurope       = "europe"
	RegionAsia         = "asia"
	RegionSouthAmerica = "south-america"
	RegionAustralia    = "australia"
	RegionOther        = "other"
)

// regionKeywords maps regions to lowercase country-name fragments.
var regionKeywords = []struct {
	region   string
	keywords []string
}{
	{RegionNorthAmerica, []string{"usa", "united states", "canada", "mexico"}},
	{RegionEurope, []string{"france", "germany", "spain", "italy", "uk", "united kingdom", "bulgaria", "european", "netherlands", "switzerland"}},
	{RegionAsia, []string{"china", "india", "bangladesh", "nepal", "cambodia", "japan", "vietnam"}},
	{RegionSouthAmerica, []string{"brazil", "peru", "colombia", "argentina", "chile"}},
	{RegionAustralia, []string{"australia"}},
}

// Region classifies a single country name.
func Region(country string) string {
	c := strings.ToLower(country)
	if c == "" {
		return RegionOther
	}
	for _, rk := range regionKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(c, kw) {
				return rk.region
			}
		}
	}
	return RegionOther
}

// FilterWatershedsByRegion keeps watersheds with at least one country in the
// region. "all" or "" keeps everything.
func FilterWatershedsByRegion(stats []WatershedStat, region string) []WatershedStat {
	if region == "" || region == "all" {
		return stats
	}
	out := make([]WatershedStat, 0, len(stats))
	for _, s := range stats {
		for _, c := range s.Countries {
			if Region(c) == region {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// ValidRegion reports whether region is a known region name or "all".
func ValidRegion(region string) bool {
	switch region {
	case "", "all", RegionNorthAmerica, RegionEurope, RegionAsia, RegionSouthAmerica, RegionAustralia, RegionOther:
		return true
	}
	return false
}
