// Package terminal owns the shell side of the session: the PTY the
// shell runs on and the scrollback window harvested from its output.
package terminal

import (
	"os"
	"os/exec"
)

// PTY is a pseudo-terminal master.
type PTY interface {
	// File returns the master file descriptor.
	File() *os.File

	// Read reads shell output from the PTY.
	Read(p []byte) (n int, err error)

	// Write writes input bytes to the shell.
	Write(p []byte) (n int, err error)

	// Resize changes the PTY window size.
	Resize(cols, rows uint16) error

	// Close closes the master side.
	Close() error
}

// StartPTY starts a command on a new PTY of the given size.
func StartPTY(cmd *exec.Cmd, cols, rows uint16) (PTY, error) {
	return startPTY(cmd, cols, rows)
}
