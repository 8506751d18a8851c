package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/parla/internal/assess"
	"github.com/verte-zerg/parla/internal/config"
	"github.com/verte-zerg/parla/internal/critique"
	"github.com/verte-zerg/parla/internal/model"
	"github.com/verte-zerg/parla/internal/session"
)

const (
	defaultStrategy  = assess.StrategyPositional
	defaultLocale    = "en-US"
	defaultModel     = "gpt-4o-mini"
	defaultAPIKeyEnv = "OPENAI_API_KEY"
	defaultRetries   = 2
)

var (
	practiceStrategy  string
	practiceBinary    bool
	practiceCountMild bool
	practiceOK        float64
	practiceMild      float64
	practiceLocale    string
	practiceStrict    bool

	criticBaseURL   string
	criticModel     string
	criticAPIKeyEnv string
	criticTimeout   int
	criticRetries   int

	speechCommand string
)

func bindSettingsFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&practiceStrategy, "strategy", defaultStrategy, "word comparison strategy (positional, membership, fuzzy)")
	f.BoolVar(&practiceBinary, "binary", false, "flag words as ok or bad without a mild tier")
	f.BoolVar(&practiceCountMild, "count-mild", true, "count mild words as errors")
	f.Float64Var(&practiceOK, "ok-threshold", assess.DefaultOKThreshold, "minimum similarity for an ok word (0-1)")
	f.Float64Var(&practiceMild, "mild-threshold", assess.DefaultMildThreshold, "minimum similarity for a mild word (0-1)")
	f.StringVar(&practiceLocale, "locale", defaultLocale, "playback locale")
	f.BoolVar(&practiceStrict, "strict", false, "use the strict assessor persona")
	f.StringVar(&criticBaseURL, "base-url", "", "OpenAI-compatible API base URL")
	f.StringVar(&criticModel, "model", defaultModel, "assessor model")
	f.StringVar(&criticAPIKeyEnv, "api-key-env", defaultAPIKeyEnv, "environment variable holding the API key")
	f.IntVar(&criticTimeout, "timeout", int(critique.DefaultTimeout/time.Second), "assessor timeout in seconds")
	f.IntVar(&criticRetries, "retries", defaultRetries, "assessor retries after a transient failure")
	f.StringVar(&speechCommand, "speech", "", "playback command (empty = auto-detect, none = off)")
}

// settings is the resolved flag and config file state.
type settings struct {
	practice      model.PracticeConfig
	strictSet     bool
	critic        model.CriticConfig
	speechCommand string
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	return resolveSettings(cmd, fileCfg)
}

func resolveSettings(cmd *cobra.Command, fileCfg config.FileConfig) (settings, error) {
	applyStringConfig(cmd, "strategy", &practiceStrategy, fileCfg.Practice.Strategy)
	applyBoolConfig(cmd, "binary", &practiceBinary, fileCfg.Practice.Binary)
	applyBoolConfig(cmd, "count-mild", &practiceCountMild, fileCfg.Practice.CountMild)
	applyFloatConfig(cmd, "ok-threshold", &practiceOK, fileCfg.Practice.OKThreshold)
	applyFloatConfig(cmd, "mild-threshold", &practiceMild, fileCfg.Practice.MildThreshold)
	applyStringConfig(cmd, "locale", &practiceLocale, fileCfg.Practice.Locale)
	applyBoolConfig(cmd, "strict", &practiceStrict, fileCfg.Practice.Strict)
	applyStringConfig(cmd, "base-url", &criticBaseURL, fileCfg.Critic.BaseURL)
	applyStringConfig(cmd, "model", &criticModel, fileCfg.Critic.Model)
	applyStringConfig(cmd, "api-key-env", &criticAPIKeyEnv, fileCfg.Critic.APIKeyEnv)
	applyIntConfig(cmd, "timeout", &criticTimeout, fileCfg.Critic.Timeout)
	applyIntConfig(cmd, "retries", &criticRetries, fileCfg.Critic.Retries)
	applyStringConfig(cmd, "speech", &speechCommand, fileCfg.Speech.Command)

	s := settings{
		practice: model.PracticeConfig{
			Strategy:      practiceStrategy,
			Binary:        practiceBinary,
			CountMild:     practiceCountMild,
			OKThreshold:   practiceOK,
			MildThreshold: practiceMild,
			Locale:        practiceLocale,
			Strict:        practiceStrict,
		},
		strictSet: cmd.Flags().Changed("strict") || fileCfg.Practice.Strict != nil,
		critic: model.CriticConfig{
			BaseURL:   criticBaseURL,
			Model:     criticModel,
			APIKeyEnv: criticAPIKeyEnv,
			Timeout:   time.Duration(criticTimeout) * time.Second,
			Retries:   criticRetries,
		},
		speechCommand: speechCommand,
	}
	if err := validateConfig(s); err != nil {
		return settings{}, err
	}
	return s, nil
}

func (s settings) sessionOptions() (session.Options, error) {
	strategy, err := assess.StrategyFor(s.practice.Strategy)
	if err != nil {
		return session.Options{}, err
	}
	opts := session.DefaultOptions()
	opts.Strategy = strategy
	opts.Classifier = assess.Classifier{
		OK:     s.practice.OKThreshold,
		Mild:   s.practice.MildThreshold,
		Binary: s.practice.Binary,
	}
	opts.CountMild = s.practice.CountMild
	return opts, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# parla configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# strategy = %q      # positional, membership or fuzzy
# binary = false              # Flag words as ok or bad without a mild tier
# count-mild = true           # Count mild words as errors
# ok-threshold = %.2f         # Minimum similarity for an ok word (0-1)
# mild-threshold = %.2f       # Minimum similarity for a mild word (0-1)
# locale = %q            # Playback locale
# strict = false              # Strict assessor persona

[critic]
# base-url = "https://router.huggingface.co/v1"  # OpenAI-compatible endpoint
# model = %q
# api-key-env = %q
# timeout = %d                # Seconds per assessor call
# retries = %d                 # Retries after a transient failure

[speech]
# command = ""                # Empty = auto-detect say/espeak, "none" = off
`,
		defaultStrategy,
		assess.DefaultOKThreshold,
		assess.DefaultMildThreshold,
		defaultLocale,
		defaultModel,
		defaultAPIKeyEnv,
		int(critique.DefaultTimeout/time.Second),
		defaultRetries,
	)
}

func validateConfig(s settings) error {
	if _, err := assess.StrategyFor(s.practice.Strategy); err != nil {
		return fmt.Errorf("--strategy: %w", err)
	}
	if s.practice.OKThreshold < 0 || s.practice.OKThreshold > 1 {
		return fmt.Errorf("--ok-threshold must be between 0 and 1")
	}
	if s.practice.MildThreshold < 0 || s.practice.MildThreshold > 1 {
		return fmt.Errorf("--mild-threshold must be between 0 and 1")
	}
	if s.practice.MildThreshold > s.practice.OKThreshold {
		return fmt.Errorf("--mild-threshold must not exceed --ok-threshold")
	}
	if s.critic.Model == "" {
		return fmt.Errorf("--model must not be empty")
	}
	if s.critic.APIKeyEnv == "" {
		return fmt.Errorf("--api-key-env must not be empty")
	}
	if s.critic.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if s.critic.Retries < 0 {
		return fmt.Errorf("--retries must be >= 0")
	}
	return nil
}
