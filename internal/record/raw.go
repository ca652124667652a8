package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexibleString can unmarshal from a JSON string, number, or the first
// element of a string array (Crossref wraps titles and venues in arrays).
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	// Handle null
	if string(data) == "null" {
		*f = ""
		return nil
	}

	// Try string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	// Try number
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	// Try array, keep the first non-empty element
	var arr []FlexibleString
	if err := json.Unmarshal(data, &arr); err == nil {
		for _, v := range arr {
			if strings.TrimSpace(string(v)) != "" {
				*f = v
				return nil
			}
		}
		*f = ""
		return nil
	}

	// Objects and booleans carry no usable text; degrade to empty.
	*f = ""
	return nil
}

func (f FlexibleString) String() string {
	return string(f)
}

// FlexibleInt can unmarshal from a JSON number or numeric string. Set is
// false when the field was absent, null, or not numeric.
type FlexibleInt struct {
	Value int
	Set   bool
}

func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	*f = FlexibleInt{}
	if string(data) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleInt{Value: int(math.Round(n)), Set: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*f = FlexibleInt{Value: i, Set: true}
		}
		return nil
	}

	// Malformed numbers degrade to unset rather than failing the whole record.
	return nil
}

// DateParts is the Crossref date shape: {"date-parts": [[2019, 5, 1]]}.
type DateParts struct {
	Parts [][]FlexibleInt `json:"date-parts"`
}

// Year returns the first element of the first date-part, if present.
func (d *DateParts) Year() (int, bool) {
	if d == nil || len(d.Parts) == 0 || len(d.Parts[0]) == 0 {
		return 0, false
	}
	y := d.Parts[0][0]
	if !y.Set || y.Value <= 0 {
		return 0, false
	}
	return y.Value, true
}

// JournalField is either a bare string or an object with a name.
type JournalField struct {
	Name string
}

func (j *JournalField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		j.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		j.Name = obj.Name
	}
	return nil
}

// AuthorsField accepts Crossref author objects, plain name strings, or a
// single delimited string.
type AuthorsField []Author

func (a *AuthorsField) UnmarshalJSON(data []byte) error {
	*a = nil
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = ParseAuthors(s)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}

	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			name = strings.TrimSpace(name)
			if name != "" {
				*a = append(*a, splitDisplayName(name))
			}
			continue
		}

		var obj struct {
			Given  string `json:"given"`
			Family string `json:"family"`
			First  string `json:"first"`
			Last   string `json:"last"`
			Name   string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		switch {
		case obj.Family != "":
			*a = append(*a, Author{First: obj.Given, Last: obj.Family})
		case obj.Last != "":
			*a = append(*a, Author{First: obj.First, Last: obj.Last})
		case obj.Name != "":
			*a = append(*a, splitDisplayName(obj.Name))
		}
	}
	return nil
}

// splitDisplayName turns "Peirong Lin" or "Lin, Peirong" into an Author.
func splitDisplayName(name string) Author {
	if idx := strings.Index(name, ","); idx > 0 {
		return Author{Last: strings.TrimSpace(name[:idx]), First: strings.TrimSpace(name[idx+1:])}
	}
	parts := strings.Fields(name)
	if len(parts) == 1 {
		return Author{Last: parts[0]}
	}
	return Author{First: strings.Join(parts[:len(parts)-1], " "), Last: parts[len(parts)-1]}
}

// RawRecord is a bibliographic record as it appears in source files. Field
// names vary across sources; the Normalizer resolves them in a fixed order.
//
// encoding/json matches keys case-insensitively, so "DOI" and "doi" both land
// in DOI.
type RawRecord struct {
	Title    FlexibleString `json:"title"`
	Author   AuthorsField   `json:"author"`
	Authors  AuthorsField   `json:"authors"`
	Abstract string         `json:"abstract"`

	// Year sources
	Year            FlexibleInt `json:"year"`
	Published       *DateParts  `json:"published"`
	PublishedOnline *DateParts  `json:"published-online"`
	PublishedPrint  *DateParts  `json:"published-print"`

	// Citation count sources
	ReferencedByCount FlexibleInt `json:"is-referenced-by-count"`
	Cites             FlexibleInt `json:"cites"`
	Citations         FlexibleInt `json:"citations"`
	CitationCount     FlexibleInt `json:"citation_count"` // Written by WriteJSONL

	// Venue sources
	ContainerTitle FlexibleString `json:"container-title"`
	Journal        *JournalField  `json:"journal"`
	Source         FlexibleString `json:"source"`
	JournalTitle   FlexibleString `json:"journal-title"`
	Venue          FlexibleString `json:"venue"`

	Publisher FlexibleString `json:"publisher"`
	Type      FlexibleString `json:"type"`
	DOI       FlexibleString `json:"doi"`
	URL       FlexibleString `json:"url"`

	Volume FlexibleString `json:"volume"`
	Issue  FlexibleString `json:"issue"`
	Page   FlexibleString `json:"page"`
	Pages  FlexibleString `json:"pages"`

	ReferencesCount FlexibleInt `json:"references-count"`
	ReferenceCount  FlexibleInt `json:"reference-count"`
	RefCount        FlexibleInt `json:"reference_count"`

	EngagementLevel FlexibleString `json:"engagement_level"`
	ResearchDomain  FlexibleString `json:"research_domain"`
	Watershed       FlexibleString `json:"watershed"`
	Country         FlexibleString `json:"country"`
}
