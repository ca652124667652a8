package record

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// placeholders are classification values that mean "no value".
var placeholders = map[string]bool{
	"":               true,
	"unknown":        true,
	"not specified":  true,
	"not applicable": true,
	"n/a":            true,
}

// IsPlaceholder reports whether a classification value is empty or one of the
// "Unknown" / "Not specified" style stand-ins.
func IsPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

// NormalizeKey trims a group key and puts it in Unicode NFC form so that
// composed and decomposed spellings of the same name group together.
func NormalizeKey(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// SplitValues splits a multi-valued field such as "USA, Canada" or
// "Germany/France" on ',' and '/', trims each token, drops empty tokens and
// placeholders, and removes duplicates while keeping first-seen order.
func SplitValues(s string) []string {
	if IsPlaceholder(s) {
		return nil
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '/'
	})

	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		key := NormalizeKey(f)
		if IsPlaceholder(key) || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// SingleValue returns the normalized field value, or "" for placeholders.
func SingleValue(s string) string {
	if IsPlaceholder(s) {
		return ""
	}
	return NormalizeKey(s)
}
