// Package backend adapts tcell to the input engine: it owns the
// screen lifecycle and turns raw tcell events into normalized key
// events.
package backend

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lcrowe/termagent/internal/input/key"
)

// TranslateKeyEvent converts a tcell key event into the engine's
// normalized form.
func TranslateKeyEvent(ev *tcell.EventKey) key.Event {
	mods := translateModifiers(ev.Modifiers())
	when := ev.When()

	switch k := ev.Key(); k {
	case tcell.KeyRune:
		e := key.Event{Key: key.KeyRune, Rune: ev.Rune(), Modifiers: mods}
		return stamped(e, when)
	case tcell.KeyEnter:
		return stamped(key.Event{Key: key.KeyEnter, Modifiers: mods &^ key.ModCtrl}, when)
	case tcell.KeyTab:
		return stamped(key.Event{Key: key.KeyTab, Modifiers: mods &^ key.ModCtrl}, when)
	case tcell.KeyEsc:
		return stamped(key.Event{Key: key.KeyEscape, Modifiers: mods &^ key.ModCtrl}, when)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return stamped(key.Event{Key: key.KeyBackspace, Modifiers: mods &^ key.ModCtrl}, when)
	case tcell.KeyDelete:
		return stamped(key.Event{Key: key.KeyDelete, Modifiers: mods}, when)
	case tcell.KeyInsert:
		return stamped(key.Event{Key: key.KeyInsert, Modifiers: mods}, when)
	case tcell.KeyHome:
		return stamped(key.Event{Key: key.KeyHome, Modifiers: mods}, when)
	case tcell.KeyEnd:
		return stamped(key.Event{Key: key.KeyEnd, Modifiers: mods}, when)
	case tcell.KeyPgUp:
		return stamped(key.Event{Key: key.KeyPageUp, Modifiers: mods}, when)
	case tcell.KeyPgDn:
		return stamped(key.Event{Key: key.KeyPageDown, Modifiers: mods}, when)
	case tcell.KeyUp:
		return stamped(key.Event{Key: key.KeyUp, Modifiers: mods}, when)
	case tcell.KeyDown:
		return stamped(key.Event{Key: key.KeyDown, Modifiers: mods}, when)
	case tcell.KeyLeft:
		return stamped(key.Event{Key: key.KeyLeft, Modifiers: mods}, when)
	case tcell.KeyRight:
		return stamped(key.Event{Key: key.KeyRight, Modifiers: mods}, when)
	default:
		if k >= tcell.KeyF1 && k <= tcell.KeyF24 {
			e := key.Event{Key: key.KeyF1 + key.Key(k-tcell.KeyF1), Modifiers: mods}
			return stamped(e, when)
		}
		// Control characters arrive as dedicated tcell keys; the
		// engine models them as ctrl+letter chords.
		if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
			e := key.Event{
				Key:       key.KeyRune,
				Rune:      rune('a' + k - tcell.KeyCtrlA),
				Modifiers: mods | key.ModCtrl,
			}
			return stamped(e, when)
		}
		if k == tcell.KeyCtrlSpace {
			e := key.Event{Key: key.KeyRune, Rune: ' ', Modifiers: mods | key.ModCtrl}
			return stamped(e, when)
		}
		e := key.Event{Key: key.KeyOther, KeyCode: uint32(k), Modifiers: mods}
		return stamped(e, when)
	}
}

func translateModifiers(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModCtrl != 0 {
		mods |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= key.ModAlt
	}
	if m&tcell.ModShift != 0 {
		mods |= key.ModShift
	}
	if m&tcell.ModMeta != 0 {
		mods |= key.ModSuper
	}
	return mods
}

func stamped(e key.Event, when time.Time) key.Event {
	e.Timestamp = when
	return e
}
