// Package command parses agent-command lines typed behind the prefix
// character and classifies everything else as verbatim terminal input.
package command

import "fmt"

// Kind discriminates parsed command variants.
type Kind uint8

const (
	// KindTerminal means the line is raw shell input, passed through verbatim.
	KindTerminal Kind = iota

	// KindAgent means the line is an agent command with flags and a prompt.
	KindAgent
)

// Command is the result of parsing one logical input line.
type Command struct {
	Kind Kind

	// Line holds the original line for KindTerminal, byte-for-byte.
	Line string

	// Agent holds the parsed command for KindAgent.
	Agent *Agent
}

// Terminal wraps a line as verbatim shell input.
func Terminal(line string) Command {
	return Command{Kind: KindTerminal, Line: line}
}

// Agent is a fully parsed agent command ready for submission.
type Agent struct {
	// Prompt is the free text after the last recognized flag.
	Prompt string

	// ModelOverride selects a model for this command only. Empty means
	// the session default.
	ModelOverride string

	// Temperature overrides sampling temperature when non-nil.
	// Valid range is [0, 2].
	Temperature *float64

	// MaxTokens overrides the response token limit when non-nil.
	MaxTokens *int

	// Context is the session snapshot collected at parse time.
	Context Context

	// IsContinuation marks commands assembled from multiple
	// backslash-continued lines.
	IsContinuation bool
}

// String renders the command for logging. Context is omitted.
func (a *Agent) String() string {
	s := fmt.Sprintf("agent(%q", a.Prompt)
	if a.ModelOverride != "" {
		s += fmt.Sprintf(" model=%s", a.ModelOverride)
	}
	if a.Temperature != nil {
		s += fmt.Sprintf(" temp=%g", *a.Temperature)
	}
	if a.MaxTokens != nil {
		s += fmt.Sprintf(" tokens=%d", *a.MaxTokens)
	}
	return s + ")"
}
