package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/citedash/internal/aggregate"
)

// Constants for output formatting.
const (
	DefaultCitationLimit = 50 // Default limit for the citations command
	ListTitleMaxLen      = 60 // Title width in citation listings
	BarWidth             = 30 // Width of the longest distribution bar
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that write files.
type StatusResponse struct {
	Status  string `json:"status"`
	Path    string `json:"path,omitempty"`
	Count   int    `json:"count"`
	Skipped int    `json:"skipped,omitempty"`
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// bar renders count as a bar scaled against maxCount.
func bar(count, maxCount int) string {
	if maxCount <= 0 || count <= 0 {
		return ""
	}
	n := count * BarWidth / maxCount
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

// formatEntries renders a distribution as aligned rows with bars.
func formatEntries(entries []aggregate.Entry) string {
	width, maxCount := 0, 0
	for _, e := range entries {
		width = max(width, len([]rune(e.Name)))
		maxCount = max(maxCount, e.Count)
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%-*s %5d %5.1f%%  %s\n", width, e.Name, e.Count, e.Percentage, bar(e.Count, maxCount))
	}
	return b.String()
}

// formatTrend renders a trend as "+12.4%" or "-2".
func formatTrend(t aggregate.Trend) string {
	sign := "+"
	if !t.Up {
		sign = ""
	}
	switch t.Unit {
	case "percent":
		return fmt.Sprintf("%s%.1f%%", sign, t.Value)
	case "points":
		return fmt.Sprintf("%s%.1f pts", sign, t.Value)
	}
	return fmt.Sprintf("%s%d", sign, int(t.Value))
}
