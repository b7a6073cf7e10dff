package key

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chord parsing errors.
var (
	ErrEmptyChord      = errors.New("empty chord")
	ErrUnknownKey      = errors.New("unknown key name")
	ErrUnknownModifier = errors.New("unknown modifier")
)

// ParseChord parses a chord string into an Event.
//
// Grammar: chord = modifier ("+" modifier)* "+" key | key.
// Modifiers: ctrl, shift, alt, super (case-insensitive, with the usual
// aliases). Keys: a single printable character, a named key such as
// "enter", "esc", "pgup", "f5", "space", or "other:<code>" for a key
// outside the model, so any event's chord parses back.
func ParseChord(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptyChord
	}

	// A trailing '+' after a separator is the literal plus key.
	keyPart := spec
	var modPart string
	if strings.HasSuffix(spec, "+") && len(spec) > 1 {
		keyPart = "+"
		modPart = strings.TrimSuffix(spec[:len(spec)-1], "+")
	} else if i := strings.LastIndexByte(spec, '+'); i > 0 {
		keyPart = spec[i+1:]
		modPart = spec[:i]
	}

	var mods Modifier
	if modPart != "" {
		for _, part := range strings.Split(modPart, "+") {
			part = strings.TrimSpace(part)
			mod := ModifierFromName(part)
			if mod == ModNone {
				return Event{}, fmt.Errorf("%w: %q", ErrUnknownModifier, part)
			}
			mods = mods.With(mod)
		}
	}

	return parseKeyPart(keyPart, mods)
}

// parseKeyPart resolves the key portion of a chord with known modifiers.
func parseKeyPart(keyPart string, mods Modifier) (Event, error) {
	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		return Event{}, ErrEmptyChord
	}

	if code, ok := strings.CutPrefix(keyPart, "other:"); ok {
		n, err := strconv.ParseUint(code, 10, 32)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %q", ErrUnknownKey, keyPart)
		}
		return Event{Key: KeyOther, KeyCode: uint32(n), Modifiers: mods}, nil
	}

	if k := FromName(keyPart); k != KeyNone {
		if k == KeySpace {
			// Space is a character key with a named spelling.
			return Event{Key: KeyRune, Rune: ' ', Modifiers: mods}, nil
		}
		return Event{Key: k, Modifiers: mods}, nil
	}

	if utf8.RuneCountInString(keyPart) == 1 {
		r, _ := utf8.DecodeRuneInString(keyPart)
		if !unicode.IsPrint(r) {
			return Event{}, fmt.Errorf("%w: %q", ErrUnknownKey, keyPart)
		}
		return Event{Key: KeyRune, Rune: unicode.ToLower(r), Modifiers: mods}, nil
	}

	return Event{}, fmt.Errorf("%w: %q", ErrUnknownKey, keyPart)
}

// Canonicalize parses a chord string and re-serializes it in canonical
// form: modifiers ordered ctrl, alt, shift, super; key names lowercased
// with their shortest spelling. Canonicalize is idempotent.
func Canonicalize(spec string) (string, error) {
	ev, err := ParseChord(spec)
	if err != nil {
		return "", err
	}
	return ev.Chord(), nil
}

// MustChord parses a chord string and panics on error.
// Use only for known-valid chords in initialization code.
func MustChord(spec string) Event {
	ev, err := ParseChord(spec)
	if err != nil {
		panic("invalid chord: " + spec + ": " + err.Error())
	}
	return ev
}
