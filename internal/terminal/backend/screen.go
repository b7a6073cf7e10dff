package backend

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lcrowe/termagent/internal/input/key"
)

// Bracketed paste markers, kept on assembled paste text so the engine
// can tell pasted bytes from typed ones.
const (
	pasteStart = "\x1b[200~"
	pasteEnd   = "\x1b[201~"
)

// EventKind discriminates the events the poll loop yields.
type EventKind uint8

const (
	// EventKey carries a translated key event.
	EventKey EventKind = iota

	// EventResize carries a new screen size.
	EventResize

	// EventClosed means the screen was finalized; stop polling.
	EventClosed
)

// Event is one polled backend event.
type Event struct {
	Kind EventKind
	Key  key.Event
	Cols int
	Rows int
}

// Screen wraps a tcell screen for the host loop. It enables bracketed
// paste and delivers each paste as a single key event whose Text holds
// the wrapped content.
type Screen struct {
	screen tcell.Screen

	pasting  bool
	pasteBuf strings.Builder
}

// NewScreen initializes the terminal screen.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	s.EnablePaste()
	return &Screen{screen: s}, nil
}

// Size returns the current screen dimensions.
func (s *Screen) Size() (cols, rows int) {
	return s.screen.Size()
}

// Fini restores the terminal.
func (s *Screen) Fini() {
	s.screen.Fini()
}

// Poll blocks for the next event. Rune events between paste markers
// are buffered and emitted as one EventKey when the paste closes.
func (s *Screen) Poll() Event {
	for {
		switch ev := s.screen.PollEvent().(type) {
		case *tcell.EventKey:
			kev := TranslateKeyEvent(ev)
			if s.pasting {
				s.bufferPasted(kev)
				continue
			}
			return Event{Kind: EventKey, Key: kev}

		case *tcell.EventPaste:
			if ev.Start() {
				s.pasting = true
				s.pasteBuf.Reset()
				continue
			}
			s.pasting = false
			text := pasteStart + s.pasteBuf.String() + pasteEnd
			s.pasteBuf.Reset()
			return Event{Kind: EventKey, Key: key.NewRuneEvent(0, key.ModNone).WithText(text)}

		case *tcell.EventResize:
			cols, rows := ev.Size()
			return Event{Kind: EventResize, Cols: cols, Rows: rows}

		case nil:
			return Event{Kind: EventClosed}
		}
	}
}

// bufferPasted appends one in-paste key event to the paste buffer.
func (s *Screen) bufferPasted(kev key.Event) {
	switch {
	case kev.Text != "":
		s.pasteBuf.WriteString(kev.Text)
	case kev.Key == key.KeyRune:
		s.pasteBuf.WriteRune(kev.Rune)
	case kev.Key == key.KeyEnter:
		s.pasteBuf.WriteByte('\n')
	case kev.Key == key.KeyTab:
		s.pasteBuf.WriteByte('\t')
	}
}
