package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lcrowe/termagent/internal/input/keymap"
)

// ShellMode selects the line-editing behavior of the underlying shell.
type ShellMode uint8

const (
	// ShellEmacs is readline emacs editing, the usual default.
	ShellEmacs ShellMode = iota

	// ShellVi is readline vi editing.
	ShellVi

	// ShellRaw disables editing-mode bindings entirely.
	ShellRaw
)

var shellModeNames = [...]string{
	ShellEmacs: "emacs",
	ShellVi:    "vi",
	ShellRaw:   "raw",
}

func (m ShellMode) String() string {
	if int(m) < len(shellModeNames) {
		return shellModeNames[m]
	}
	return fmt.Sprintf("shellmode(%d)", m)
}

// Context returns the binding context activated by this mode.
func (m ShellMode) Context() keymap.Context {
	switch m {
	case ShellVi:
		return keymap.ContextShellVi
	case ShellRaw:
		return keymap.ContextShellRaw
	default:
		return keymap.ContextShellEmacs
	}
}

// ParseShellMode parses a configuration value. "auto" runs detection.
func ParseShellMode(name string) (ShellMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "emacs":
		return ShellEmacs, nil
	case "vi":
		return ShellVi, nil
	case "raw":
		return ShellRaw, nil
	case "auto":
		return DetectShellMode(), nil
	default:
		return ShellEmacs, fmt.Errorf("unknown shell mode %q", name)
	}
}

// DetectShellMode guesses the user's readline editing mode from the
// environment: a vi-flavored $EDITOR, or "set editing-mode vi" in the
// inputrc. Emacs is the fallback, matching readline's own default.
func DetectShellMode() ShellMode {
	editor := filepath.Base(os.Getenv("EDITOR"))
	if editor == "vi" || strings.HasPrefix(editor, "vim") || strings.HasPrefix(editor, "nvim") {
		return ShellVi
	}

	inputrc := os.Getenv("INPUTRC")
	if inputrc == "" {
		if home, err := os.UserHomeDir(); err == nil {
			inputrc = filepath.Join(home, ".inputrc")
		}
	}
	if inputrc != "" {
		if data, err := os.ReadFile(inputrc); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				line = strings.TrimSpace(line)
				if strings.HasPrefix(line, "set") &&
					strings.Contains(line, "editing-mode") &&
					strings.Contains(line, "vi") {
					return ShellVi
				}
			}
		}
	}
	return ShellEmacs
}
