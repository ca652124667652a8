// Package author matches author-name queries against citing records.
package author

import (
	"strings"

	"github.com/matsen/citedash/internal/record"
)

// Query is one parsed author filter.
type Query struct {
	First string // Empty for surname-only queries
	Last  string
}

// ParseQuery accepts "Lin", "Peirong Lin" or "Lin, Peirong". In the
// space-separated form the final word is the surname: "Cedric H David"
// gives First "Cedric H", Last "David".
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if input == "" {
		return Query{}
	}

	if last, first, ok := strings.Cut(input, ","); ok && strings.TrimSpace(last) != "" {
		return Query{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
	}

	words := strings.Fields(input)
	n := len(words)
	if n == 1 {
		return Query{Last: words[0]}
	}
	return Query{First: strings.Join(words[:n-1], " "), Last: words[n-1]}
}

// ParseQueries splits input on ';' and parses each part. Empty parts are
// skipped.
func ParseQueries(input string) []Query {
	var out []Query
	for _, part := range strings.Split(input, ";") {
		if q := ParseQuery(part); !q.IsZero() {
			out = append(out, q)
		}
	}
	return out
}

// IsZero reports whether q has no surname and so matches nothing.
func (q Query) IsZero() bool {
	return q.Last == ""
}

// Matches requires a case-insensitive surname match and, when the query has
// a given name, a case-insensitive prefix match on it ("Ced" matches
// "Cedric H"). "Li" does not match "Lin".
//
// Authors recorded as a single display string (no surname split) are
// matched on their final word.
func (q Query) Matches(a record.Author) bool {
	if q.IsZero() {
		return false
	}
	first, last := a.First, a.Last
	if last == "" {
		if words := strings.Fields(first); len(words) > 0 {
			last = words[len(words)-1]
			first = strings.Join(words[:len(words)-1], " ")
		}
	}

	if !strings.EqualFold(q.Last, last) {
		return false
	}
	if q.First == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(first), strings.ToLower(q.First))
}

// MatchesAny reports whether some author in authors matches q.
func (q Query) MatchesAny(authors []record.Author) bool {
	for _, a := range authors {
		if q.Matches(a) {
			return true
		}
	}
	return false
}

// AllMatch is AND over queries: each must match at least one author.
// No queries match everything.
func AllMatch(queries []Query, authors []record.Author) bool {
	for _, q := range queries {
		if !q.MatchesAny(authors) {
			return false
		}
	}
	return true
}
