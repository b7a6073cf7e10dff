// Package keymap stores key bindings and resolves chords to actions
// with context awareness, priority ordering, and a small lookup cache.
package keymap

import (
	"fmt"
	"strings"
)

// Context is a bitmask of binding scopes. A binding declares the
// contexts it applies in; resolution passes the set of currently
// active contexts and matches on intersection.
type Context uint8

const (
	// ContextGlobal bindings apply everywhere.
	ContextGlobal Context = 1 << iota

	// ContextShellEmacs bindings apply in emacs shell editing mode.
	ContextShellEmacs

	// ContextShellVi bindings apply in vi shell editing mode.
	ContextShellVi

	// ContextShellRaw bindings apply in raw shell mode.
	ContextShellRaw

	// ContextAgent bindings apply while an agent exchange is active.
	ContextAgent

	// ContextPrefix bindings apply while the command buffer is open.
	ContextPrefix

	// ContextContinuation bindings apply during multi-line input.
	ContextContinuation
)

// contextNames maps configuration spellings to contexts.
var contextNames = map[string]Context{
	"global":       ContextGlobal,
	"shell:emacs":  ContextShellEmacs,
	"shell:vi":     ContextShellVi,
	"shell:raw":    ContextShellRaw,
	"agent":        ContextAgent,
	"prefix":       ContextPrefix,
	"continuation": ContextContinuation,
}

// ParseContext parses a configuration context name.
func ParseContext(name string) (Context, error) {
	c, ok := contextNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown context %q", name)
	}
	return c, nil
}

// Has reports whether c contains all bits of other.
func (c Context) Has(other Context) bool {
	return c&other == other
}

// Intersects reports whether c and other share any bit.
func (c Context) Intersects(other Context) bool {
	return c&other != 0
}

// String returns the configuration spelling, joining multi-bit masks
// with commas.
func (c Context) String() string {
	var parts []string
	for _, name := range []string{
		"global", "shell:emacs", "shell:vi", "shell:raw",
		"agent", "prefix", "continuation",
	} {
		if c.Intersects(contextNames[name]) {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
