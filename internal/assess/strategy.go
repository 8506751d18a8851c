package assess

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
)

// Strategy names accepted by StrategyFor.
const (
	StrategyPositional = "positional"
	StrategyMembership = "membership"
	StrategyFuzzy      = "fuzzy"
)

// Strategy scores the corrected word at index i against the spoken words.
type Strategy interface {
	Name() string
	Score(i int, word string, spoken []string) float64
}

// StrategyFor returns the strategy registered under name.
// An empty name selects the positional strategy.
func StrategyFor(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyPositional:
		return Positional{}, nil
	case StrategyMembership:
		return Membership{}, nil
	case StrategyFuzzy:
		return Fuzzy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (available: %s, %s, %s)", name, StrategyPositional, StrategyMembership, StrategyFuzzy)
	}
}

// Positional compares characters of the words at the same index.
type Positional struct{}

// Name implements Strategy.
func (Positional) Name() string { return StrategyPositional }

// Score implements Strategy.
func (Positional) Score(i int, word string, spoken []string) float64 {
	return Similarity(word, spokenAt(spoken, i))
}

// Membership accepts a corrected word if it was spoken anywhere in the utterance.
type Membership struct{}

// Name implements Strategy.
func (Membership) Name() string { return StrategyMembership }

// Score implements Strategy.
func (Membership) Score(_ int, word string, spoken []string) float64 {
	for _, s := range spoken {
		if s == word {
			return 1
		}
	}
	return 0
}

// Fuzzy pairs words by index like Positional but scores them with
// Jaro-Winkler, so swapped letters inside a word cost less.
type Fuzzy struct{}

// Name implements Strategy.
func (Fuzzy) Name() string { return StrategyFuzzy }

// Score implements Strategy.
func (Fuzzy) Score(i int, word string, spoken []string) float64 {
	other := spokenAt(spoken, i)
	if word == other {
		return 1
	}
	if word == "" || other == "" {
		return 0
	}
	return matchr.JaroWinkler(word, other, false)
}

func spokenAt(spoken []string, i int) string {
	if i < len(spoken) {
		return spoken[i]
	}
	return ""
}
