package record

import "strings"

// Citation type buckets used by the citation-type distribution.
const (
	TypeJournal    = "Peer-Reviewed Journals"
	TypeConference = "Conference Papers"
	TypeThesis     = "Academic Theses"
	TypeReport     = "Technical Reports"
	TypeOnline     = "Online Resources"
	TypePress      = "Popular Press"
)

// CitationTypeOrder is the canonical render order of citation types.
var CitationTypeOrder = []string{TypeJournal, TypeConference, TypeThesis, TypeReport, TypeOnline, TypePress}

// academicPublishers are publisher-name fragments that mark a record as
// formally published.
var academicPublishers = []string{
	"elsevier",
	"springer",
	"wiley",
	"american geophysical union",
	"(agu)",
	"ieee",
	"mdpi",
	"taylor & francis",
	"copernicus",
	"american chemical society",
	"oxford university press",
	"cambridge university press",
	"sage publications",
	"american meteorological society",
	"iop publishing",
	"frontiers media",
	"american society of civil engineers",
	"iwa publishing",
}

// journalTypes are normalized "type" values meaning journal article.
var journalTypes = map[string]bool{
	"journal-article": true,
	"journal article": true,
	"journal":         true,
	"article":         true,
}

// IsPeerReviewed reports whether the record counts as peer-reviewed: venue
// names a journal or proceedings, type is a journal-article marker, or the
// publisher is a recognized academic publisher.
func IsPeerReviewed(r Record) bool {
	venue := strings.ToLower(r.Venue)
	if venue == "" {
		venue = strings.ToLower(r.Source)
	}
	if strings.Contains(venue, "journal") || strings.Contains(venue, "proceedings") {
		return true
	}
	if journalTypes[strings.ToLower(strings.TrimSpace(r.Type))] {
		return true
	}
	return isAcademicPublisher(r.Publisher)
}

func isAcademicPublisher(publisher string) bool {
	p := strings.ToLower(publisher)
	if p == "" {
		return false
	}
	for _, known := range academicPublishers {
		if strings.Contains(p, known) {
			return true
		}
	}
	return false
}

// CitationType assigns the record to one of the citation-type buckets from
// its type field, falling back to venue keywords.
func CitationType(r Record) string {
	typ := strings.ToLower(strings.TrimSpace(r.Type))
	venue := strings.ToLower(r.Source)

	switch {
	case strings.Contains(typ, "thesis") || strings.Contains(typ, "dissertation") ||
		strings.Contains(venue, "thesis") || strings.Contains(venue, "dissertation"):
		return TypeThesis
	case strings.Contains(typ, "proceedings") || strings.Contains(typ, "conference") ||
		strings.Contains(venue, "conference") || strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") || strings.Contains(venue, "meeting"):
		return TypeConference
	case strings.Contains(typ, "report") || strings.Contains(venue, "report") ||
		strings.Contains(venue, "technical"):
		return TypeReport
	case strings.Contains(typ, "news") || strings.Contains(typ, "magazine") ||
		strings.Contains(venue, "news") || strings.Contains(venue, "magazine"):
		return TypePress
	case IsPeerReviewed(r):
		return TypeJournal
	}
	return TypeOnline
}
