package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/parla/internal/model"
	"github.com/verte-zerg/parla/internal/progress"
)

const sparkChars = " .:-=+*#%@"

// StatusLine renders "Level: B1 | Hits: 3 | Errors: 2".
func StatusLine(stats model.Stats) string {
	return fmt.Sprintf("Level: %s | Hits: %d | Errors: %d", stats.Level, stats.Hits, stats.Errors)
}

// HistoryLines renders one bullet per entry.
func HistoryLines(entries []model.HistoryEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, h := range entries {
		lines = append(lines, fmt.Sprintf("• %s — %s — errors: %d", h.Date, h.Level, h.Errors))
	}
	return lines
}

// HistoryTable renders entries as aligned columns, newest last.
func HistoryTable(entries []model.HistoryEntry) []string {
	rows := make([][]string, 0, len(entries))
	for _, h := range entries {
		rows = append(rows, []string{h.Date, string(h.Level), strconv.Itoa(h.Errors)})
	}
	return formatTable([]string{"Date", "Level", "Errors"}, rows, map[int]bool{2: true})
}

// Sparkline renders one character per turn on a fixed 0..top axis.
// Negative values clamp to 0 and values above top clamp to top. A top of
// 0 or less scales to the largest value, so an all-zero series stays blank.
func Sparkline(values []float64, top float64) string {
	if top <= 0 {
		for _, v := range values {
			top = math.Max(top, v)
		}
	}
	steps := float64(len(sparkChars) - 1)
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if top > 0 {
			idx = int(math.Round(math.Min(math.Max(v, 0), top) / top * steps))
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Summary prints stats, the newest history rows and error and level
// sparklines over the full history.
func Summary(w io.Writer, book *progress.Book, last int) error {
	stats := book.Stats()
	history := book.History()
	if _, err := fmt.Fprintln(w, StatusLine(stats)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Turns: %d  Accuracy: %.1f%%\n", len(history), progress.Accuracy(stats)*100); err != nil {
		return err
	}
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No turns recorded yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	for _, line := range HistoryTable(progress.Tail(history, last)) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Errors |%s|\n", Sparkline(progress.ErrorSeries(history), 0)); err != nil {
		return err
	}
	top := float64(len(book.Ladder().Levels()) - 1)
	_, err := fmt.Fprintf(w, "Level  |%s|\n", Sparkline(book.LevelSeries(history), top))
	return err
}
