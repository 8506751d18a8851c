// Package critique talks to the remote language assessor and extracts
// labelled fields from its free-form responses.
package critique

import (
	"strings"

	"github.com/verte-zerg/parla/internal/model"
)

// Labels recognised in assessor responses.
const (
	LabelCorrection    = "Correction"
	LabelMistakes      = "Mistakes"
	LabelReply         = "Reply"
	LabelLevel         = "Level"
	LabelPronunciation = "Pronunciation"
)

// Labels lists every recognised label.
var Labels = []string{LabelCorrection, LabelMistakes, LabelReply, LabelLevel, LabelPronunciation}

// Parse extracts a Critique from raw. Absent labels leave their field empty.
func Parse(raw string) model.Critique {
	f := ParseFields(raw, Labels)
	return model.Critique{
		Correction:    f[LabelCorrection],
		Reply:         f[LabelReply],
		Level:         f[LabelLevel],
		Mistakes:      f[LabelMistakes],
		Pronunciation: f[LabelPronunciation],
	}
}

// ParseFields finds "<label>:" case-insensitively for each label and
// captures the text after it up to the next line that starts with an
// upper-case letter, or the end of raw. Every label is present in the
// result; missing ones map to "".
//
// A continuation line that happens to start with a capital letter ends
// the field early.
func ParseFields(raw string, labels []string) map[string]string {
	out := make(map[string]string, len(labels))
	for _, label := range labels {
		out[label] = field(raw, label)
	}
	return out
}

func field(raw, label string) string {
	start := indexFold(raw, label+":")
	if start < 0 {
		return ""
	}
	rest := raw[start+len(label)+1:]
	return strings.TrimSpace(rest[:fieldEnd(rest)])
}

func fieldEnd(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\n' && s[i+1] >= 'A' && s[i+1] <= 'Z' {
			return i
		}
	}
	return len(s)
}

// indexFold is strings.Index with ASCII case folding.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
