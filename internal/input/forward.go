package input

import "github.com/lcrowe/termagent/internal/input/key"

// Precomputed single-byte strings so forwarding ASCII and control
// characters does not allocate.
var (
	asciiStrings [128]string
	ctrlStrings  [26]string
)

func init() {
	for i := range asciiStrings {
		asciiStrings[i] = string(rune(i))
	}
	for i := range ctrlStrings {
		ctrlStrings[i] = string(rune(i + 1))
	}
}

// forwardSequence synthesizes the byte sequence a terminal would send
// for an event that carries no composed text. Events with no sensible
// encoding produce an empty string and are swallowed.
func forwardSequence(ev key.Event) string {
	if ev.Text != "" {
		return ev.Text
	}

	switch ev.Key {
	case key.KeyRune:
		r := ev.Rune
		if ev.Modifiers.HasCtrl() {
			switch {
			case r >= 'a' && r <= 'z':
				return ctrlStrings[r-'a']
			case r >= 'A' && r <= 'Z':
				return ctrlStrings[r-'A']
			}
			return ""
		}
		if ev.Modifiers.HasAlt() {
			return "\x1b" + string(r)
		}
		if r < 128 {
			return asciiStrings[r]
		}
		return string(r)
	case key.KeyEnter:
		return "\n"
	case key.KeyTab:
		return "\t"
	case key.KeyBackspace:
		return "\x08"
	case key.KeyDelete:
		return "\x7f"
	case key.KeyEscape:
		return "\x1b"
	case key.KeyUp:
		return "\x1b[A"
	case key.KeyDown:
		return "\x1b[B"
	case key.KeyRight:
		return "\x1b[C"
	case key.KeyLeft:
		return "\x1b[D"
	case key.KeyHome:
		return "\x1b[H"
	case key.KeyEnd:
		return "\x1b[F"
	case key.KeyInsert:
		return "\x1b[2~"
	case key.KeyPageUp:
		return "\x1b[5~"
	case key.KeyPageDown:
		return "\x1b[6~"
	case key.KeyF1:
		return "\x1bOP"
	case key.KeyF2:
		return "\x1bOQ"
	case key.KeyF3:
		return "\x1bOR"
	case key.KeyF4:
		return "\x1bOS"
	case key.KeyF5:
		return "\x1b[15~"
	case key.KeyF6:
		return "\x1b[17~"
	case key.KeyF7:
		return "\x1b[18~"
	case key.KeyF8:
		return "\x1b[19~"
	case key.KeyF9:
		return "\x1b[20~"
	case key.KeyF10:
		return "\x1b[21~"
	case key.KeyF11:
		return "\x1b[23~"
	case key.KeyF12:
		return "\x1b[24~"
	default:
		return ""
	}
}
