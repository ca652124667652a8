// Package record defines the bibliographic record types shared by every
// aggregation, and the normalizer that builds them from heterogeneous
// source shapes.
package record

import (
	"strconv"
	"strings"
)

// Record is one citing publication after normalization.
//
// Year is 0 when no source date could be resolved. CitationCount is never
// negative.
type Record struct {
	// Metadata
	Title    string   `json:"title"`
	Authors  []Author `json:"authors"`
	Abstract string   `json:"abstract,omitempty"`
	Venue    string   `json:"venue,omitempty"` // Empty when missing or denylisted
	Source   string   `json:"source,omitempty"` // Raw venue string for display, before denylisting

	Publisher string `json:"publisher,omitempty"`
	Type      string `json:"type,omitempty"`
	DOI       string `json:"doi,omitempty"`
	URL       string `json:"url,omitempty"`

	// Bibliographic detail
	Volume string `json:"volume,omitempty"`
	Issue  string `json:"issue,omitempty"`
	Pages  string `json:"pages,omitempty"`

	// Resolved numbers
	Year           int `json:"year,omitempty"`
	CitationCount  int `json:"citation_count"`
	ReferenceCount int `json:"reference_count,omitempty"`

	// Classification
	ResearchDomain  string          `json:"research_domain"`
	EngagementLevel EngagementLevel `json:"engagement_level"`
	Watershed       string          `json:"watershed"`
	Country         string          `json:"country"`

	IsOriginalPaper bool `json:"is_original_paper,omitempty"`
}

// HasYear reports whether the publication year was resolved.
func (r Record) HasYear() bool {
	return r.Year > 0
}

// YearString returns the year as text, or "" when unresolved.
func (r Record) YearString() string {
	if !r.HasYear() {
		return ""
	}
	return strconv.Itoa(r.Year)
}

// Author is a citing-paper author.
type Author struct {
	First string `json:"first,omitempty"` // Given name(s)
	Last  string `json:"last"`            // Family name
}

// FormatAuthors renders authors as "Last, First; Last, First" and appends
// "et al." once maxCount authors have been written. maxCount <= 0 writes all.
func FormatAuthors(authors []Author, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}

	names := make([]string, 0, len(authors))
	for i, a := range authors {
		if maxCount > 0 && i >= maxCount {
			break
		}
		if a.First != "" {
			names = append(names, a.Last+", "+a.First)
		} else {
			names = append(names, a.Last)
		}
	}

	out := strings.Join(names, "; ")
	if maxCount > 0 && len(authors) > maxCount {
		out += " et al."
	}
	return out
}

// ParseAuthors splits a delimited author string ("Lin, Peirong; Pan, Ming")
// back into authors. Entries without a comma are treated as a bare family name.
func ParseAuthors(s string) []Author {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "et al."))
	if s == "" {
		return nil
	}

	var authors []Author
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, ","); idx > 0 {
			authors = append(authors, Author{
				Last:  strings.TrimSpace(part[:idx]),
				First: strings.TrimSpace(part[idx+1:]),
			})
			continue
		}
		authors = append(authors, Author{Last: part})
	}
	return authors
}
