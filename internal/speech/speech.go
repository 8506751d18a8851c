// Package speech plays assessor replies aloud through a system
// text-to-speech command.
package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en-US"

// Speaker reads text aloud. Speak returns once playback has started.
type Speaker interface {
	Speak(ctx context.Context, text, locale string) error
}

// Nop discards everything.
type Nop struct{}

// Speak implements Speaker.
func (Nop) Speak(context.Context, string, string) error { return nil }

// Command speaks by running an external program.
type Command struct {
	name string
	args func(text, locale string) []string
	// OnExit receives the playback result; it may be nil.
	OnExit func(error)
}

// Speak implements Speaker. Playback runs in the background; ctx bounds
// its lifetime.
func (c *Command) Speak(ctx context.Context, text, locale string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if locale == "" {
		locale = DefaultLocale
	}
	cmd := exec.CommandContext(ctx, c.name, c.args(text, locale)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.name, err)
	}
	go func() {
		err := cmd.Wait()
		if c.OnExit != nil {
			c.OnExit(err)
		}
	}()
	return nil
}

// Name returns the program used for playback.
func (c *Command) Name() string {
	return c.name
}

type engine struct {
	name string
	args func(text, locale string) []string
}

var engines = []engine{
	{name: "say", args: func(text, _ string) []string {
		return []string{"-v", "Samantha", "-r", "170", text}
	}},
	{name: "espeak-ng", args: espeakArgs},
	{name: "espeak", args: espeakArgs},
	{name: "spd-say", args: func(text, locale string) []string {
		return []string{"-l", strings.ToLower(strings.SplitN(locale, "-", 2)[0]), "-r", "-5", text}
	}},
}

func espeakArgs(text, locale string) []string {
	return []string{"-v", strings.ToLower(locale), "-s", "160", text}
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// New picks a speaker for command. An empty command selects the first
// installed engine, "none" disables playback, and any other value is run
// with the text as its last argument.
func New(command string) (Speaker, error) {
	command = strings.TrimSpace(command)
	switch command {
	case "none", "off":
		return Nop{}, nil
	case "":
		for _, e := range engines {
			if _, err := lookPath(e.name); err == nil {
				return &Command{name: e.name, args: e.args}, nil
			}
		}
		return Nop{}, nil
	}
	parts := strings.Fields(command)
	for _, e := range engines {
		if len(parts) == 1 && parts[0] == e.name {
			return &Command{name: e.name, args: e.args}, nil
		}
	}
	if _, err := lookPath(parts[0]); err != nil {
		return nil, fmt.Errorf("speech command %q not found: %w", parts[0], err)
	}
	extra := parts[1:]
	return &Command{name: parts[0], args: func(text, _ string) []string {
		return append(append([]string(nil), extra...), text)
	}}, nil
}
