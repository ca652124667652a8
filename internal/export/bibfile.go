package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/citedash/internal/record"
)

var (
	bibEntryStart = regexp.MustCompile(`^\s*@\w+\s*\{\s*([^,\s]+)\s*,`)
	bibDOIField   = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[{"]([^}"]+)[}"]`)
)

// BibIndex holds the keys and DOIs already present in a .bib file.
type BibIndex struct {
	Keys map[string]bool
	DOIs map[string]bool // Normalized with NormalizeDOI
}

// ReadBibIndex scans a .bib file. A missing file gives an empty index.
func ReadBibIndex(path string) (*BibIndex, error) {
	idx := &BibIndex{Keys: make(map[string]bool), DOIs: make(map[string]bool)}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening bib file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if m := bibEntryStart.FindStringSubmatch(line); m != nil {
			idx.Keys[m[1]] = true
		}
		if m := bibDOIField.FindStringSubmatch(line); m != nil {
			if doi := NormalizeDOI(m[1]); doi != "" {
				idx.DOIs[doi] = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bib file: %w", err)
	}
	return idx, nil
}

// Has reports whether a record with this DOI is already indexed.
func (idx *BibIndex) Has(doi string) bool {
	doi = NormalizeDOI(doi)
	return doi != "" && idx.DOIs[doi]
}

// NormalizeDOI strips resolver prefixes and lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi.org/", "doi:", "DOI:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// AppendBibTeX adds records to the .bib file at path, skipping those whose
// DOI is already there and keeping new keys distinct from existing ones.
// It returns the number of entries written and skipped.
func AppendBibTeX(path string, records []record.Record) (added, skipped int, err error) {
	idx, err := ReadBibIndex(path)
	if err != nil {
		return 0, 0, err
	}

	var fresh []record.Record
	for _, r := range records {
		if idx.Has(r.DOI) {
			skipped++
			continue
		}
		if doi := NormalizeDOI(r.DOI); doi != "" {
			idx.DOIs[doi] = true
		}
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return 0, skipped, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, skipped, fmt.Errorf("opening bib file: %w", err)
	}
	defer f.Close()

	content := ToBibTeXList(AssignKeys(fresh, idx.Keys))
	if _, err := f.WriteString("\n" + content); err != nil {
		return 0, skipped, fmt.Errorf("writing bib file: %w", err)
	}
	return len(fresh), skipped, nil
}
