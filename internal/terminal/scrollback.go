package terminal

import (
	"strings"
	"sync"
)

// defaultScrollbackLines bounds the retained output history.
const defaultScrollbackLines = 10000

// Scrollback accumulates shell output as plain text lines. Escape
// sequences are not interpreted; the window feeds agent-command
// context, not a display.
type Scrollback struct {
	mu       sync.Mutex
	lines    []string
	partial  strings.Builder
	maxLines int
}

// NewScrollback returns a buffer retaining at most maxLines lines.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines <= 0 {
		maxLines = defaultScrollbackLines
	}
	return &Scrollback{maxLines: maxLines}
}

// Feed consumes raw shell output and returns the lines completed by
// this chunk. A trailing fragment without a newline is held until the
// next call.
func (s *Scrollback) Feed(p []byte) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completed []string
	for _, b := range p {
		switch b {
		case '\n':
			line := strings.TrimSuffix(s.partial.String(), "\r")
			s.partial.Reset()
			completed = append(completed, line)
		case '\r':
			// Carried into the line and trimmed at the newline; bare
			// carriage returns inside a line are left as-is.
			s.partial.WriteByte(b)
		default:
			s.partial.WriteByte(b)
		}
	}

	if len(completed) > 0 {
		s.lines = append(s.lines, completed...)
		if n := len(s.lines); n > s.maxLines {
			s.lines = append(s.lines[:0], s.lines[n-s.maxLines:]...)
		}
	}
	return completed
}

// Lines returns a copy of the retained history, oldest first.
func (s *Scrollback) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Len returns the number of retained lines.
func (s *Scrollback) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}
