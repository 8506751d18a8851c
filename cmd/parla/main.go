// Package main provides the CLI entrypoint for parla.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/parla/internal/config"
	"github.com/verte-zerg/parla/internal/critique"
	"github.com/verte-zerg/parla/internal/level"
	"github.com/verte-zerg/parla/internal/progress"
	"github.com/verte-zerg/parla/internal/render"
	"github.com/verte-zerg/parla/internal/session"
	"github.com/verte-zerg/parla/internal/speech"
	"github.com/verte-zerg/parla/internal/store"
	"github.com/verte-zerg/parla/internal/tui"
)

var (
	assessCorrected string
	assessSpeak     bool

	statsLast int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "parla",
		Short:         "Conversational English practice with level tracking",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	bindSettingsFlags(rootCmd)

	rootCmd.AddCommand(newAssessCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newStrictCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// app holds what a command needs once settings are resolved.
type app struct {
	settings settings
	store    *store.Store
	book     *progress.Book
	logger   *slog.Logger
}

func openApp(cmd *cobra.Command) (*app, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stderr)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	book, err := progress.Load(cmd.Context(), st, level.Default(), logger)
	if err != nil {
		closeStore(st)
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if s.strictSet && book.Strict() != s.practice.Strict {
		if err := book.SetStrict(cmd.Context(), s.practice.Strict); err != nil {
			closeStore(st)
			return nil, fmt.Errorf("failed to save strict mode: %w", err)
		}
	}
	return &app{settings: s, store: st, book: book, logger: logger}, nil
}

func (a *app) close() {
	closeStore(a.store)
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func (a *app) newSession(critic critique.Critic) (*session.Session, error) {
	opts, err := a.settings.sessionOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = a.logger
	return session.New(critic, a.book, opts), nil
}

func (a *app) newCritic() (critique.Critic, error) {
	c := a.settings.critic
	key := strings.TrimSpace(os.Getenv(c.APIKeyEnv))
	if key == "" {
		return nil, fmt.Errorf("no API key: set %s or change critic.api-key-env", c.APIKeyEnv)
	}
	opts := []critique.Option{critique.WithTimeout(c.Timeout)}
	if c.BaseURL != "" {
		opts = append(opts, critique.WithBaseURL(c.BaseURL))
	}
	client, err := critique.NewClient(key, c.Model, opts...)
	if err != nil {
		return nil, err
	}
	rcfg := critique.DefaultResilientConfig()
	rcfg.MaxAttempts = c.Retries + 1
	rcfg.Logger = a.logger
	return critique.NewResilient(client, rcfg), nil
}

func (a *app) newSpeaker() speech.Speaker {
	sp, err := speech.New(a.settings.speechCommand)
	if err != nil {
		logErrf("playback disabled: %v\n", err)
		return speech.Nop{}
	}
	return sp
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	critic, err := a.newCritic()
	if err != nil {
		return err
	}
	sess, err := a.newSession(critic)
	if err != nil {
		return err
	}

	model := tui.NewModel(sess, a.newSpeaker(), a.settings.practice.Locale)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newAssessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess <utterance>",
		Short: "Assess one utterance and record the turn",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAssessCmd,
	}
	cmd.Flags().StringVar(&assessCorrected, "corrected", "", "score against this reference instead of asking the assessor")
	cmd.Flags().BoolVar(&assessSpeak, "speak", false, "speak the reply after assessment")
	return cmd
}

func runAssessCmd(cmd *cobra.Command, args []string) error {
	utterance := strings.Join(args, " ")
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var critic critique.Critic
	if assessCorrected == "" {
		critic, err = a.newCritic()
		if err != nil {
			return err
		}
	}
	sess, err := a.newSession(critic)
	if err != nil {
		return err
	}

	var res session.Result
	if assessCorrected != "" {
		res, err = sess.Score(cmd.Context(), assessCorrected, utterance)
	} else {
		res, err = sess.Assess(cmd.Context(), utterance)
	}
	if err != nil {
		if errors.Is(err, session.ErrAssessmentUnavailable) {
			logErrln("Assessment unavailable; nothing was recorded. Try again.")
		}
		return err
	}

	out := cmd.OutOrStdout()
	if err := printResult(out, res, isTerminal(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if assessSpeak && res.Critique.Reply != "" {
		if err := a.newSpeaker().Speak(cmd.Context(), res.Critique.Reply, a.settings.practice.Locale); err != nil {
			logErrf("playback failed: %v\n", err)
		}
	}
	return nil
}

func printResult(w io.Writer, res session.Result, color bool) error {
	var lines []string
	if color {
		lines = append(lines, render.Highlight(res.Pairs, 0))
	} else {
		lines = append(lines, render.Marked(res.Pairs))
	}
	if flagged := render.Flagged(res.Pairs); len(flagged) > 0 {
		lines = append(lines, "Flagged: "+strings.Join(flagged, ", "))
	}
	if res.Critique.Reply != "" {
		lines = append(lines, "Reply: "+res.Critique.Reply)
	}
	if res.Critique.Mistakes != "" {
		lines = append(lines, "Mistakes: "+res.Critique.Mistakes)
	}
	if res.Critique.Pronunciation != "" {
		lines = append(lines, "Pronunciation: "+res.Critique.Pronunciation)
	}
	if res.Suggested != "" {
		lines = append(lines, "Assessor level: "+string(res.Suggested))
	}
	lines = append(lines, render.StatusLine(res.Outcome.Stats))
	if res.Outcome.Previous != res.Outcome.Stats.Level {
		lines = append(lines, fmt.Sprintf("Level %s → %s", res.Outcome.Previous, res.Outcome.Stats.Level))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show level, totals and recent turns",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsLast, "last", 10, "number of recent turns to list")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := render.Summary(cmd.OutOrStdout(), a.book, statsLast); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset level, totals and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.book.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset progress: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.StatusLine(a.book.Stats()))
			return err
		},
	}
}

func newStrictCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "strict [on|off]",
		Short:     "Show or change strict assessment mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE:      runStrictCmd,
	}
}

func runStrictCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if len(args) == 1 {
		var strict bool
		switch strings.ToLower(args[0]) {
		case "on":
			strict = true
		case "off":
			strict = false
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		if err := a.book.SetStrict(cmd.Context(), strict); err != nil {
			return fmt.Errorf("failed to save strict mode: %w", err)
		}
	}
	state := "off"
	if a.book.Strict() {
		state = "on"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "strict mode: %s\n", state)
	return err
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
