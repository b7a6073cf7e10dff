package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lcrowe/termagent/internal/input/keymap"
)

func TestParseShellMode(t *testing.T) {
	tests := []struct {
		name string
		want ShellMode
	}{
		{"emacs", ShellEmacs},
		{"", ShellEmacs},
		{"vi", ShellVi},
		{"raw", ShellRaw},
		{"Vi", ShellVi},
	}
	for _, tt := range tests {
		got, err := ParseShellMode(tt.name)
		if err != nil {
			t.Fatalf("ParseShellMode(%q) error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ParseShellMode(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if _, err := ParseShellMode("teco"); err == nil {
		t.Error("unknown mode should fail")
	}
}

func TestDetectShellModeFromEditor(t *testing.T) {
	t.Setenv("EDITOR", "/usr/bin/vim")
	t.Setenv("INPUTRC", filepath.Join(t.TempDir(), "absent"))
	if got := DetectShellMode(); got != ShellVi {
		t.Errorf("DetectShellMode = %v, want vi", got)
	}

	t.Setenv("EDITOR", "nvim")
	if got := DetectShellMode(); got != ShellVi {
		t.Errorf("DetectShellMode = %v, want vi for nvim", got)
	}
}

func TestDetectShellModeFromInputrc(t *testing.T) {
	t.Setenv("EDITOR", "nano")

	inputrc := filepath.Join(t.TempDir(), "inputrc")
	if err := os.WriteFile(inputrc, []byte("set editing-mode vi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INPUTRC", inputrc)
	if got := DetectShellMode(); got != ShellVi {
		t.Errorf("DetectShellMode = %v, want vi from inputrc", got)
	}
}

func TestDetectShellModeDefault(t *testing.T) {
	t.Setenv("EDITOR", "nano")
	t.Setenv("INPUTRC", filepath.Join(t.TempDir(), "absent"))
	if got := DetectShellMode(); got != ShellEmacs {
		t.Errorf("DetectShellMode = %v, want emacs default", got)
	}
}

func TestShellModeContext(t *testing.T) {
	tests := []struct {
		mode ShellMode
		want keymap.Context
	}{
		{ShellEmacs, keymap.ContextShellEmacs},
		{ShellVi, keymap.ContextShellVi},
		{ShellRaw, keymap.ContextShellRaw},
	}
	for _, tt := range tests {
		if got := tt.mode.Context(); got != tt.want {
			t.Errorf("%v.Context() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}
