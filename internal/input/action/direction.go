package action

import (
	"fmt"
	"strings"
)

// Direction names a cursor movement for KindCursorMove actions.
type Direction uint8

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
	DirLineStart
	DirLineEnd
	DirWordBack
	DirWordForward
)

var directionNames = [...]string{
	DirNone:        "none",
	DirUp:          "up",
	DirDown:        "down",
	DirLeft:        "left",
	DirRight:       "right",
	DirLineStart:   "line_start",
	DirLineEnd:     "line_end",
	DirWordBack:    "word_back",
	DirWordForward: "word_forward",
}

// String returns the configuration name for the direction.
func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", d)
}

// ParseDirection parses a direction name as used in configuration.
func ParseDirection(name string) (Direction, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d, n := range directionNames {
		if d != 0 && n == name {
			return Direction(d), nil
		}
	}
	return DirNone, fmt.Errorf("unknown direction %q", name)
}
