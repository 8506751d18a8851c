package assess

import "github.com/verte-zerg/parla/internal/model"

// Default severity thresholds.
const (
	DefaultOKThreshold   = 0.85
	DefaultMildThreshold = 0.5
)

// Classifier maps a score to a severity tier. With Binary set every
// non-ok pair is severe.
type Classifier struct {
	OK     float64
	Mild   float64
	Binary bool
}

// DefaultClassifier returns the three-tier classifier.
func DefaultClassifier() Classifier {
	return Classifier{OK: DefaultOKThreshold, Mild: DefaultMildThreshold}
}

// Classify returns the tier for score.
func (c Classifier) Classify(score float64) model.Severity {
	switch {
	case score >= c.OK:
		return model.SeverityOK
	case c.Binary:
		return model.SeveritySevere
	case score >= c.Mild:
		return model.SeverityMild
	default:
		return model.SeveritySevere
	}
}

// Align pairs corrected[i] with spoken[i]. Missing spoken words are
// scored as empty tokens and extra spoken words are ignored, so the
// result always has len(corrected) pairs.
func Align(corrected, spoken []string, strategy Strategy, classifier Classifier) []model.AlignedPair {
	if strategy == nil {
		strategy = Positional{}
	}
	pairs := make([]model.AlignedPair, len(corrected))
	for i, word := range corrected {
		score := strategy.Score(i, word, spoken)
		pairs[i] = model.AlignedPair{
			Corrected: word,
			Spoken:    spokenAt(spoken, i),
			Missing:   i >= len(spoken),
			Score:     score,
			Severity:  classifier.Classify(score),
		}
	}
	return pairs
}

// Tally counts errors in pairs. Severe pairs always count; mild pairs
// count only when countMild is set.
func Tally(pairs []model.AlignedPair, countMild bool) int {
	errors := 0
	for _, p := range pairs {
		switch p.Severity {
		case model.SeveritySevere:
			errors++
		case model.SeverityMild:
			if countMild {
				errors++
			}
		}
	}
	return errors
}

// Compare normalizes both texts and aligns them.
func Compare(corrected, spoken string, strategy Strategy, classifier Classifier) []model.AlignedPair {
	return Align(Tokens(corrected), Tokens(spoken), strategy, classifier)
}
