package terminal

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"
)

// Session is one shell running on a PTY, with its output history.
type Session struct {
	// ID identifies the session in logs and agent context.
	ID uuid.UUID

	pty        PTY
	cmd        *exec.Cmd
	scrollback *Scrollback
}

// StartShell launches the user's shell on a new PTY. An empty shell
// falls back to $SHELL, then /bin/sh.
func StartShell(shell string, cols, rows uint16) (*Session, error) {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	pty, err := StartPTY(cmd, cols, rows)
	if err != nil {
		return nil, fmt.Errorf("start shell %s: %w", shell, err)
	}

	return &Session{
		ID:         uuid.New(),
		pty:        pty,
		cmd:        cmd,
		scrollback: NewScrollback(0),
	}, nil
}

// Write sends input bytes to the shell.
func (s *Session) Write(p []byte) (int, error) {
	return s.pty.Write(p)
}

// ReadOutput reads one chunk of shell output into buf and feeds the
// scrollback. It returns the bytes read and the lines the chunk
// completed.
func (s *Session) ReadOutput(buf []byte) (int, []string, error) {
	n, err := s.pty.Read(buf)
	if n > 0 {
		return n, s.scrollback.Feed(buf[:n]), err
	}
	return n, nil, err
}

// Signal delivers a signal to the shell process.
func (s *Session) Signal(sig os.Signal) error {
	if s.cmd.Process == nil {
		return fmt.Errorf("session %s: shell not running", s.ID)
	}
	return s.cmd.Process.Signal(sig)
}

// Resize propagates a window-size change.
func (s *Session) Resize(cols, rows uint16) error {
	return s.pty.Resize(cols, rows)
}

// Scrollback returns the retained output history.
func (s *Session) Scrollback() *Scrollback {
	return s.scrollback
}

// Wait blocks until the shell exits.
func (s *Session) Wait() error {
	return s.cmd.Wait()
}

// Close closes the PTY; the shell receives a hangup.
func (s *Session) Close() error {
	return s.pty.Close()
}
