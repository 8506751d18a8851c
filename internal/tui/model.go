// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/parla/internal/progress"
	"github.com/verte-zerg/parla/internal/render"
	"github.com/verte-zerg/parla/internal/session"
	"github.com/verte-zerg/parla/internal/speech"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type assessedMsg struct {
	result session.Result
	err    error
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	session *session.Session
	speaker speech.Speaker
	locale  string

	input textinput.Model

	width  int
	height int

	pending bool
	cancel  context.CancelFunc

	result    *session.Result
	lastReply string
	status    string
	statusErr bool
}

// NewModel constructs a practice TUI model.
func NewModel(s *session.Session, speaker speech.Speaker, locale string) *Model {
	if speaker == nil {
		speaker = speech.Nop{}
	}
	ti := textinput.New()
	ti.Placeholder = "Say something in English…"
	ti.Prompt = "› "
	ti.CharLimit = 500
	ti.Focus()
	return &Model{
		session: s,
		speaker: speaker,
		locale:  locale,
		input:   ti,
		status:  "Type an utterance and press enter.",
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(m.contentWidth()-2, 10)
		return m, nil
	case assessedMsg:
		m.handleAssessed(msg)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.cancelPending()
			return m, tea.Quit
		case tea.KeyEsc:
			if m.pending {
				m.cancelPending()
				m.setStatus("Cancelled. Nothing was recorded.", false)
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit(m.input.Value())
		case tea.KeyCtrlR:
			return m, m.retry()
		case tea.KeyCtrlL:
			m.speak()
			return m, nil
		case tea.KeyCtrlS:
			m.toggleStrict()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{m.renderHeader()}
	if body := m.renderResult(); body != "" {
		sections = append(sections, body)
	}
	sections = append(sections, m.input.View(), m.renderStatus())
	content := lipgloss.NewStyle().Width(m.contentWidth()).Render(strings.Join(sections, "\n\n"))
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	footerHeight := lipgloss.Height(footer)
	if m.height <= footerHeight+3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, content)
	footerBlock := lipgloss.Place(m.width, footerHeight, lipgloss.Center, lipgloss.Bottom, footer)
	return body + "\n" + footerBlock
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 72
	}
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) submit(text string) tea.Cmd {
	if m.pending {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		m.setStatus("Type something first.", true)
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.pending = true
	m.cancel = cancel
	m.setStatus("Assessing…", false)
	s := m.session
	return func() tea.Msg {
		res, err := s.Assess(ctx, text)
		return assessedMsg{result: res, err: err}
	}
}

func (m *Model) retry() tea.Cmd {
	last := m.session.LastUtterance()
	if last == "" {
		m.setStatus("Nothing to retry yet.", true)
		return nil
	}
	m.input.SetValue(last)
	return m.submit(last)
}

func (m *Model) cancelPending() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) handleAssessed(msg assessedMsg) {
	m.pending = false
	m.cancelPending()
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, context.Canceled):
			m.setStatus("Cancelled. Nothing was recorded.", false)
		case errors.Is(msg.err, session.ErrMalformedCritique):
			m.setStatus("The assessor's answer was incomplete. Press ctrl+r to retry.", true)
		case errors.Is(msg.err, session.ErrAssessmentUnavailable):
			m.setStatus("Assessment unavailable. Press ctrl+r to retry.", true)
		default:
			m.setStatus(fmt.Sprintf("Turn failed: %v", msg.err), true)
		}
		logErrf("assessment failed: %v\n", msg.err)
		return
	}
	res := msg.result
	m.result = &res
	m.lastReply = res.Critique.Reply
	m.input.Reset()
	if res.Success {
		m.setStatus("Clean turn. Press ctrl+l to listen to the reply.", false)
	} else {
		m.setStatus(fmt.Sprintf("%d flagged. Press ctrl+l to listen to the reply.", res.Errors), false)
	}
}

func (m *Model) speak() {
	if m.lastReply == "" {
		m.setStatus("No reply to play yet.", true)
		return
	}
	if err := m.speaker.Speak(context.Background(), m.lastReply, m.locale); err != nil {
		m.setStatus(fmt.Sprintf("Playback failed: %v", err), true)
	}
}

func (m *Model) toggleStrict() {
	if m.pending {
		return
	}
	strict := !m.session.Strict()
	if err := m.session.SetStrict(context.Background(), strict); err != nil {
		m.setStatus(fmt.Sprintf("Failed to save strict mode: %v", err), true)
		return
	}
	if strict {
		m.setStatus("Strict mode on.", false)
	} else {
		m.setStatus("Strict mode off.", false)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) renderHeader() string {
	mode := "strict off"
	if m.session.Strict() {
		mode = "strict on"
	}
	return titleStyle.Render("parla") + labelStyle.Render(fmt.Sprintf("  %s · %s", mode, m.session.StrategyName()))
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return ""
	}
	res := m.result
	lines := []string{
		labelStyle.Render("You said: ") + res.Utterance,
		render.Highlight(res.Pairs, m.contentWidth()),
	}
	lines = append(lines, "", labelStyle.Render("Reply: ")+replyStyle.Render(res.Critique.Reply))
	if res.Critique.Mistakes != "" {
		lines = append(lines, labelStyle.Render("Mistakes: ")+res.Critique.Mistakes)
	}
	if res.Critique.Pronunciation != "" {
		lines = append(lines, labelStyle.Render("Pronunciation: ")+res.Critique.Pronunciation)
	}
	if res.Suggested != "" {
		lines = append(lines, labelStyle.Render("Assessor level: ")+string(res.Suggested))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus() string {
	if m.statusErr {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

func (m *Model) renderFooter() string {
	lines := []string{render.StatusLine(m.session.Stats())}
	recent := m.session.Recent(progress.DisplayLimit)
	if len(recent) > 0 {
		lines = append(lines, "Progress")
		lines = append(lines, render.HistoryLines(recent)...)
	}
	lines = append(lines, "enter assess · ctrl+r retry · ctrl+l listen · ctrl+s strict · esc quit")
	return footerStyle.Render(strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
