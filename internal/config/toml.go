// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Critic   CriticConfig   `toml:"critic"`
	Speech   SpeechConfig   `toml:"speech"`
}

// PracticeConfig maps assessment settings.
type PracticeConfig struct {
	Strategy      *string  `toml:"strategy"`
	Binary        *bool    `toml:"binary"`
	CountMild     *bool    `toml:"count-mild"`
	OKThreshold   *float64 `toml:"ok-threshold"`
	MildThreshold *float64 `toml:"mild-threshold"`
	Locale        *string  `toml:"locale"`
	Strict        *bool    `toml:"strict"`
}

// CriticConfig maps assessor settings.
type CriticConfig struct {
	BaseURL   *string `toml:"base-url"`
	Model     *string `toml:"model"`
	APIKeyEnv *string `toml:"api-key-env"`
	Timeout   *int    `toml:"timeout"`
	Retries   *int    `toml:"retries"`
}

// SpeechConfig maps playback settings.
type SpeechConfig struct {
	Command *string `toml:"command"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
