package dashboard

import "github.com/matsen/citedash/internal/record"

// DemoMessage is shown when a dashboard serves demo records.
const DemoMessage = "Using demo data based on the reference paper."

// DemoRecords returns the single reference paper served when a dashboard's
// data source cannot be read.
func DemoRecords() []record.Record {
	return []record.Record{{
		Title: "Global Reconstruction of Naturalized River Flows at 2.94 Million Reaches",
		Authors: []record.Author{
			{First: "Peirong", Last: "Lin"},
			{First: "Ming", Last: "Pan"},
			{First: "Hylke E.", Last: "Beck"},
			{First: "Yuan", Last: "Yang"},
			{First: "Dai", Last: "Yamazaki"},
		},
		Abstract: "Spatiotemporally continuous global river discharge estimates across the full spectrum " +
			"of stream orders are vital to a range of hydrologic applications, yet they remain poorly constrained.",
		Venue:           "Water Resources Research",
		Source:          "Water Resources Research",
		Publisher:       "American Geophysical Union (AGU)",
		Type:            "journal-article",
		DOI:             "10.1029/2019WR025287",
		URL:             "https://agupubs.onlinelibrary.wiley.com/doi/10.1029/2019WR025287",
		Year:            2019,
		CitationCount:   213,
		ResearchDomain:  "River Modeling",
		EngagementLevel: record.Level3,
		Watershed:       "Global",
		Country:         "Global",
		IsOriginalPaper: true,
	}}
}
