// Package config loads the TOML configuration file and notifies
// subscribers when it changes on disk.
package config

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Config is the root of the configuration file.
type Config struct {
	Input       Input        `toml:"input"`
	Context     Context      `toml:"context"`
	Keybindings []Keybinding `toml:"keybinding"`
}

// Input configures the dispatch engine.
type Input struct {
	// Prefix is the agent-command prefix, a single character.
	Prefix string `toml:"prefix"`

	// ShellMode is emacs, vi, raw, or auto.
	ShellMode string `toml:"shell_mode"`

	// PrefixTimeoutMS expires a stalled command capture. 0 disables.
	PrefixTimeoutMS int `toml:"prefix_timeout_ms"`
}

// Context configures the snapshot attached to agent commands.
type Context struct {
	// Lines is the scrollback depth, capped at 200.
	Lines int `toml:"lines"`

	// IncludeEnv attaches the whitelisted environment variables.
	IncludeEnv bool `toml:"include_env"`
}

// Keybinding is one [[keybinding]] block.
type Keybinding struct {
	Chord    string     `toml:"chord"`
	Context  string     `toml:"context"`
	Priority int        `toml:"priority"`
	When     string     `toml:"when"`
	Action   ActionSpec `toml:"action"`
}

// ActionSpec names the action a binding triggers.
type ActionSpec struct {
	Type string   `toml:"type"`
	Args []string `toml:"args"`
}

// Default returns the configuration used when the file is absent.
// Loading merges the file over these values, so an explicit zero in the
// file (prefix_timeout_ms = 0) is honored as written.
func Default() Config {
	return Config{
		Input: Input{
			Prefix:          "p",
			ShellMode:       "auto",
			PrefixTimeoutMS: 5000,
		},
		Context: Context{
			Lines:      100,
			IncludeEnv: true,
		},
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Input.Prefix) != 1 {
		return fmt.Errorf("input.prefix must be a single character, got %q", c.Input.Prefix)
	}
	switch c.Input.ShellMode {
	case "", "emacs", "vi", "raw", "auto":
	default:
		return fmt.Errorf("input.shell_mode must be emacs, vi, raw or auto, got %q", c.Input.ShellMode)
	}
	if c.Input.PrefixTimeoutMS < 0 {
		return errors.New("input.prefix_timeout_ms must not be negative")
	}
	if c.Context.Lines < 0 {
		return errors.New("context.lines must not be negative")
	}
	for i, kb := range c.Keybindings {
		if kb.Chord == "" {
			return fmt.Errorf("keybinding %d: chord is required", i)
		}
		if kb.Action.Type == "" {
			return fmt.Errorf("keybinding %d (%s): action.type is required", i, kb.Chord)
		}
	}
	return nil
}

// PrefixRune returns the prefix as a rune.
func (c *Config) PrefixRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Prefix)
	return r
}

// PrefixTimeout converts prefix_timeout_ms to the engine convention:
// a positive duration, or a negative one when timeouts are disabled.
func (c *Config) PrefixTimeout() time.Duration {
	if c.Input.PrefixTimeoutMS <= 0 {
		return -1
	}
	return time.Duration(c.Input.PrefixTimeoutMS) * time.Millisecond
}
