// Package level moves a learner along the proficiency ladder.
package level

import (
	"strings"

	"github.com/verte-zerg/parla/internal/model"
)

// Ladder is an ordered set of levels, lowest first.
type Ladder struct {
	levels []model.Level
}

// Default returns the A1..C1 ladder.
func Default() Ladder {
	return New(model.Levels)
}

// New builds a ladder from levels. levels must not be empty.
func New(levels []model.Level) Ladder {
	return Ladder{levels: append([]model.Level(nil), levels...)}
}

// Lowest returns the bottom rung.
func (l Ladder) Lowest() model.Level {
	return l.levels[0]
}

// Highest returns the top rung.
func (l Ladder) Highest() model.Level {
	return l.levels[len(l.levels)-1]
}

// Levels returns a copy of the rungs.
func (l Ladder) Levels() []model.Level {
	return append([]model.Level(nil), l.levels...)
}

// Index returns the position of lvl, or -1 if it is not on the ladder.
func (l Ladder) Index(lvl model.Level) int {
	for i, v := range l.levels {
		if v == lvl {
			return i
		}
	}
	return -1
}

// Valid reports whether lvl is on the ladder.
func (l Ladder) Valid(lvl model.Level) bool {
	return l.Index(lvl) >= 0
}

// Parse matches s against the ladder ignoring case and surrounding space.
func (l Ladder) Parse(s string) (model.Level, bool) {
	s = strings.TrimSpace(s)
	for _, v := range l.levels {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}

// Next moves one rung up on success and one rung down on failure,
// staying put at either end. A level that is not on the ladder is
// treated as the lowest rung.
func (l Ladder) Next(current model.Level, success bool) model.Level {
	i := l.Index(current)
	if i < 0 {
		i = 0
	}
	switch {
	case success && i < len(l.levels)-1:
		i++
	case !success && i > 0:
		i--
	}
	return l.levels[i]
}
