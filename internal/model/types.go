// Package model defines shared data structures.
package model

import "time"

// Level is a CEFR-style proficiency rung such as "A1" or "B2".
type Level string

// Levels is the ordered proficiency ladder, lowest first.
var Levels = []Level{"A1", "A2", "B1", "B2", "C1"}

// Stats is the running proficiency snapshot carried between turns.
type Stats struct {
	Level  Level `json:"level"`
	Hits   int   `json:"hits"`
	Errors int   `json:"errors"`
}

// DefaultStats returns the state of a learner with no recorded turns.
func DefaultStats() Stats {
	return Stats{Level: Levels[0]}
}

// HistoryEntry records one completed turn.
type HistoryEntry struct {
	Date   string `json:"date"`
	Level  Level  `json:"level"`
	Errors int    `json:"errors"`
}

// DateLayout is the calendar-date format used for history entries.
const DateLayout = "2006-01-02"

// NewHistoryEntry builds an entry dated on the local calendar day of at.
func NewHistoryEntry(at time.Time, level Level, errors int) HistoryEntry {
	return HistoryEntry{Date: at.Format(DateLayout), Level: level, Errors: errors}
}

// Critique is the structured form of an assessor response.
// Empty fields mean the assessor did not provide them.
type Critique struct {
	Correction    string
	Reply         string
	Level         string
	Mistakes      string
	Pronunciation string
}

// Severity classifies an aligned word pair.
type Severity int

// Severity tiers. Mild and Severe are both flagged.
const (
	SeverityOK Severity = iota
	SeverityMild
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityMild:
		return "mild"
	case SeveritySevere:
		return "severe"
	default:
		return "unknown"
	}
}

// Flagged reports whether the pair should be highlighted to the learner.
func (s Severity) Flagged() bool {
	return s != SeverityOK
}

// AlignedPair compares one corrected word against the spoken word at the same index.
type AlignedPair struct {
	Corrected string
	Spoken    string
	Missing   bool
	Score     float64
	Severity  Severity
}

// PracticeConfig defines assessment settings.
type PracticeConfig struct {
	Strategy      string
	Binary        bool
	CountMild     bool
	OKThreshold   float64
	MildThreshold float64
	Locale        string
	Strict        bool
}

// CriticConfig defines how the remote assessor is reached.
type CriticConfig struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
	Timeout   time.Duration
	Retries   int
}
