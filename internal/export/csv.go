// Package export writes records and rollup tables as CSV and BibTeX.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matsen/citedash/internal/aggregate"
	"github.com/matsen/citedash/internal/record"
)

// RecordHeader is the column order of the citations CSV.
var RecordHeader = []string{
	"Title", "Authors", "Year", "Source", "Publisher", "DOI", "Citations",
	"Engagement Level", "Research Domain", "Watershed", "Country",
	"Volume", "Issue", "Pages", "Reference Count",
}

// ErrMissingColumn is returned when a CSV lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// RecordRow renders r in RecordHeader order.
func RecordRow(r record.Record) []string {
	venue := r.Venue
	if venue == "" {
		venue = r.Source
	}
	return []string{
		r.Title,
		record.FormatAuthors(r.Authors, 0),
		r.YearString(),
		venue,
		r.Publisher,
		r.DOI,
		strconv.Itoa(r.CitationCount),
		r.EngagementLevel.String(),
		r.ResearchDomain,
		r.Watershed,
		r.Country,
		r.Volume,
		r.Issue,
		r.Pages,
		strconv.Itoa(r.ReferenceCount),
	}
}

// WriteRecords writes the citations CSV.
func WriteRecords(w io.Writer, records []record.Record) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, RecordRow(r))
	}
	return WriteTable(w, RecordHeader, rows)
}

// WriteTable writes header as a bare comma-joined line followed by rows in
// which every cell is double-quoted with embedded quotes doubled. Lines end
// with "\n" and the last row has no trailing newline.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	for _, row := range rows {
		b.WriteByte('\n')
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// WatershedHeader is the column order of the watershed table.
var WatershedHeader = []string{"Watershed", "Papers", "Citations", "Countries", "Research Domains", "Engagement Levels", "First Year", "Last Year"}

// WriteWatersheds writes the watershed rollup.
func WriteWatersheds(w io.Writer, stats []aggregate.WatershedStat) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.Papers),
			strconv.Itoa(s.Citations),
			strings.Join(s.Countries, "; "),
			strings.Join(s.Domains, "; "),
			strings.Join(s.EngagementLevels, "; "),
			yearCell(s.FirstYear),
			yearCell(s.LastYear),
		})
	}
	return WriteTable(w, WatershedHeader, rows)
}

// CountryHeader is the column order of the country table.
var CountryHeader = []string{"Country", "Papers", "Citations", "Watersheds", "Research Domains"}

// WriteCountries writes the country rollup. Fractional counts keep two
// decimals.
func WriteCountries(w io.Writer, stats []aggregate.CountryStat) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Name,
			strconv.FormatFloat(s.Papers, 'f', 2, 64),
			strconv.FormatFloat(s.Citations, 'f', 2, 64),
			strings.Join(s.Watersheds, "; "),
			strings.Join(s.Domains, "; "),
		})
	}
	return WriteTable(w, CountryHeader, rows)
}

func yearCell(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

// ReadRecords parses a citations CSV. Columns are located by header name,
// so order and extra columns do not matter; Title is required. Numeric cells
// that do not parse become 0.
func ReadRecords(r io.Reader) ([]record.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []record.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, fmt.Errorf("%w: Title", ErrMissingColumn)
	}

	records := []record.Record{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		source := get("source")
		rec := record.Record{
			Title:           get("title"),
			Authors:         record.ParseAuthors(get("authors")),
			Year:            atoi(get("year")),
			Venue:           record.CleanVenue(source),
			Source:          source,
			Publisher:       get("publisher"),
			DOI:             get("doi"),
			CitationCount:   max(atoi(get("citations")), 0),
			EngagementLevel: record.ParseEngagementLevel(get("engagement level")),
			ResearchDomain:  get("research domain"),
			Watershed:       get("watershed"),
			Country:         get("country"),
			Volume:          get("volume"),
			Issue:           get("issue"),
			Pages:           get("pages"),
			ReferenceCount:  max(atoi(get("reference count")), 0),
		}
		if rec.DOI != "" {
			rec.URL = "https://doi.org/" + rec.DOI
		}
		records = append(records, rec)
	}
	return records, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
