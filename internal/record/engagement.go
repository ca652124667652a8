package record

import (
	"encoding/json"
	"strings"
)

// EngagementLevel is the ordinal classification of how deeply a citing work
// uses the subject model.
type EngagementLevel int

const (
	Unclassified EngagementLevel = iota
	Level1                       // Simple citation
	Level2                       // Data usage
	Level3                       // Model adaptation
	Level4                       // Foundational method
)

// EngagementOrder is the canonical render order of engagement levels.
var EngagementOrder = []EngagementLevel{Level1, Level2, Level3, Level4, Unclassified}

var engagementLabels = map[EngagementLevel]string{
	Level1:       "Level 1: Simple Citation",
	Level2:       "Level 2: Data Usage",
	Level3:       "Level 3: Model Adaptation",
	Level4:       "Level 4: Foundational Method",
	Unclassified: "Unclassified",
}

var engagementShort = map[EngagementLevel]string{
	Level1:       "L1: Citation",
	Level2:       "L2: Data Usage",
	Level3:       "L3: Adaptation",
	Level4:       "L4: Foundation",
	Unclassified: "Unclassified",
}

var engagementDescriptions = map[EngagementLevel]string{
	Level1: "References the paper without using the model directly",
	Level2: "Uses the model's methodology, data, or outputs",
	Level3: "Modifies, extends, or adapts the model",
	Level4: "The model is central to the research methodology",
}

// String returns the canonical label, e.g. "Level 3: Model Adaptation".
func (l EngagementLevel) String() string {
	if s, ok := engagementLabels[l]; ok {
		return s
	}
	return engagementLabels[Unclassified]
}

// Short returns the abbreviated chart label, e.g. "L3: Adaptation".
func (l EngagementLevel) Short() string {
	if s, ok := engagementShort[l]; ok {
		return s
	}
	return engagementShort[Unclassified]
}

// Description explains the level. Unclassified has none.
func (l EngagementLevel) Description() string {
	return engagementDescriptions[l]
}

// Classified reports whether the level is one of Level1..Level4.
func (l EngagementLevel) Classified() bool {
	return l >= Level1 && l <= Level4
}

// IsImplementation reports whether the level counts toward the
// implementation rate (the two highest levels).
func (l EngagementLevel) IsImplementation() bool {
	return l == Level3 || l == Level4
}

// ParseEngagementLevel accepts "Level 3: Model Adaptation", "Level 3",
// "L3", "3" and similar. Anything unrecognized is Unclassified.
func ParseEngagementLevel(s string) EngagementLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Unclassified
	}

	s = strings.TrimPrefix(s, "level")
	s = strings.TrimPrefix(s, "l")
	s = strings.TrimSpace(s)
	if s == "" {
		return Unclassified
	}
	// The level digit must stand alone: "Level 12" and "3rd" are not levels.
	if len(s) > 1 && !isLevelTerminator(s[1]) {
		return Unclassified
	}

	switch s[0] {
	case '1':
		return Level1
	case '2':
		return Level2
	case '3':
		return Level3
	case '4':
		return Level4
	}
	return Unclassified
}

func isLevelTerminator(c byte) bool {
	return !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c == '.')
}

// MarshalJSON encodes the level as its canonical label.
func (l EngagementLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a label or a bare number.
func (l *EngagementLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = ParseEngagementLevel(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil && n >= 1 && n <= 4 {
		*l = EngagementLevel(n)
		return nil
	}
	*l = Unclassified
	return nil
}
