package progress

import "github.com/verte-zerg/parla/internal/model"

// Accuracy returns the share of clean turns, or 0 with no turns.
func Accuracy(stats model.Stats) float64 {
	total := stats.Hits + stats.Errors
	if total == 0 {
		return 0
	}
	return float64(stats.Hits) / float64(total)
}

// ErrorSeries returns per-turn error counts in history order.
func ErrorSeries(history []model.HistoryEntry) []float64 {
	out := make([]float64, len(history))
	for i, h := range history {
		out[i] = float64(h.Errors)
	}
	return out
}

// LevelSeries returns the ladder index reached after each turn.
func (b *Book) LevelSeries(history []model.HistoryEntry) []float64 {
	out := make([]float64, len(history))
	for i, h := range history {
		out[i] = float64(max(b.ladder.Index(h.Level), 0))
	}
	return out
}
