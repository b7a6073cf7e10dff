package key

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

// Event represents a single normalized key press.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Text carries the IME/composed string for character events.
	// When present it is authoritative for forwarding to the shell.
	Text string

	// Repeat is true for auto-repeated events.
	Repeat bool

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// KeyCode is the raw platform key code, when known.
	// For KeyOther events it is the only identity the model carries.
	KeyCode uint32
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{
		Key:       KeyRune,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{
		Key:       key,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// NewOtherEvent creates an event for a key outside the model, identified
// only by its raw platform code.
func NewOtherEvent(code uint32, mods Modifier) Event {
	return Event{
		Key:       KeyOther,
		Modifiers: mods,
		KeyCode:   code,
		Timestamp: time.Now(),
	}
}

// WithText returns a copy of the event carrying composed text.
func (e Event) WithText(text string) Event {
	e.Text = text
	return e
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar returns true if this is a printable character.
func (e Event) IsChar() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune)
}

// IsSpecial returns true if this is a special (non-character) key.
func (e Event) IsSpecial() bool {
	return e.Key.IsSpecial()
}

// IsBareRune reports a character event with no modifiers held.
func (e Event) IsBareRune(r rune) bool {
	return e.Key == KeyRune && e.Rune == r && e.Modifiers == ModNone
}

// IsEnter returns true if this is the Enter key (with no modifiers).
func (e Event) IsEnter() bool {
	return e.Key == KeyEnter && e.Modifiers == ModNone
}

// IsEscape returns true if this is the Escape key (with no modifiers).
func (e Event) IsEscape() bool {
	return e.Key == KeyEscape && e.Modifiers == ModNone
}

// IsBackspace returns true if this is Backspace (with no modifiers).
func (e Event) IsBackspace() bool {
	return e.Key == KeyBackspace && e.Modifiers == ModNone
}

// Equals returns true if two events denote the same chord.
// Timestamps, text and repeat flags are not compared.
func (e Event) Equals(other Event) bool {
	return e.Key == other.Key &&
		e.Rune == other.Rune &&
		e.Modifiers == other.Modifiers
}

// Chord returns the canonical chord string for this event.
// Two events that denote the same logical chord map to identical strings.
func (e Event) Chord() string {
	return string(e.AppendChord(nil))
}

// AppendChord appends the canonical chord string to dst and returns the
// extended slice. The hot path reuses a caller-owned buffer so that a
// resolved lookup performs no heap allocation.
func (e Event) AppendChord(dst []byte) []byte {
	if e.Modifiers.HasCtrl() {
		dst = append(dst, "ctrl+"...)
	}
	if e.Modifiers.HasAlt() {
		dst = append(dst, "alt+"...)
	}
	if e.Modifiers.HasShift() {
		dst = append(dst, "shift+"...)
	}
	if e.Modifiers.HasSuper() {
		dst = append(dst, "super+"...)
	}

	switch e.Key {
	case KeyRune:
		if e.Rune == ' ' {
			return append(dst, "space"...)
		}
		return appendLowerRune(dst, e.Rune)
	case KeyOther:
		return fmt.Appendf(dst, "other:%d", e.KeyCode)
	default:
		return append(dst, e.Key.Name()...)
	}
}

// appendLowerRune appends the lowercase form of r without allocating.
func appendLowerRune(dst []byte, r rune) []byte {
	if r < 'a' || r > 'z' {
		r = unicode.ToLower(r)
	}
	if r < utf8.RuneSelf {
		return append(dst, byte(r))
	}
	var buf [4]byte
	n := utf8.EncodeRune(buf[:], r)
	return append(dst, buf[:n]...)
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %q}",
		e.Key.String(), e.Rune, e.Modifiers.String())
}
