// Package render turns assessment results into terminal text.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/parla/internal/model"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mildStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0B040")).Underline(true)
	severeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Underline(true)
)

type styledWord struct {
	s     string
	width int
}

func styleFor(sev model.Severity) lipgloss.Style {
	switch sev {
	case model.SeverityMild:
		return mildStyle
	case model.SeveritySevere:
		return severeStyle
	default:
		return okStyle
	}
}

func buildStyledWords(pairs []model.AlignedPair) []styledWord {
	out := make([]styledWord, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, styledWord{
			s:     styleFor(p.Severity).Render(p.Corrected),
			width: runewidth.StringWidth(p.Corrected),
		})
	}
	return out
}

// Highlight renders the corrected words with flagged ones coloured and
// underlined, wrapped to width columns. A width of 0 disables wrapping.
func Highlight(pairs []model.AlignedPair, width int) string {
	return wrapStyledWords(buildStyledWords(pairs), width)
}

// Marked renders the corrected words for plain output: mild words are
// wrapped in ~tildes~ and severe words in *asterisks*.
func Marked(pairs []model.AlignedPair) string {
	words := make([]string, 0, len(pairs))
	for _, p := range pairs {
		switch p.Severity {
		case model.SeverityMild:
			words = append(words, "~"+p.Corrected+"~")
		case model.SeveritySevere:
			words = append(words, "*"+p.Corrected+"*")
		default:
			words = append(words, p.Corrected)
		}
	}
	return strings.Join(words, " ")
}

// Flagged lists the corrected words that were highlighted, with what was said.
func Flagged(pairs []model.AlignedPair) []string {
	var out []string
	for _, p := range pairs {
		if !p.Severity.Flagged() {
			continue
		}
		said := p.Spoken
		if p.Missing {
			said = "(missing)"
		}
		out = append(out, p.Corrected+" ← "+said)
	}
	return out
}

func wrapStyledWords(words []styledWord, width int) string {
	var out strings.Builder
	lineWidth := 0
	for i, w := range words {
		if i > 0 {
			if width > 0 && lineWidth+1+w.width > width {
				out.WriteByte('\n')
				lineWidth = 0
			} else {
				out.WriteByte(' ')
				lineWidth++
			}
		}
		out.WriteString(w.s)
		lineWidth += w.width
	}
	return out.String()
}
