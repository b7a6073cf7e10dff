// Package action defines the actions a key binding can resolve to.
// Actions are the output of the input layer: they are pushed onto the
// dispatch channel and consumed by the terminal session loop.
package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lcrowe/termagent/internal/command"
)

// Kind identifies the category of an action.
type Kind uint8

const (
	// KindNone is the zero value and never dispatched.
	KindNone Kind = iota

	// KindSendToTerminal forwards raw bytes to the shell PTY.
	KindSendToTerminal

	// KindExecuteCommand submits a parsed agent command.
	KindExecuteCommand

	// KindInterrupt requests SIGINT delivery to the foreground job.
	KindInterrupt

	// KindSuspend requests SIGTSTP delivery to the foreground job.
	KindSuspend

	// KindEOF signals end-of-input to the shell.
	KindEOF

	// KindClearScreen clears the visible terminal screen.
	KindClearScreen

	// KindHistoryPrev recalls the previous history entry.
	KindHistoryPrev

	// KindHistoryNext recalls the next history entry.
	KindHistoryNext

	// KindCompletion triggers shell completion.
	KindCompletion

	// KindCursorMove moves the cursor; Direction says where.
	KindCursorMove

	// KindCustom is a user-defined action identified by Name.
	KindCustom
)

var kindNames = [...]string{
	KindNone:           "none",
	KindSendToTerminal: "send_to_terminal",
	KindExecuteCommand: "execute_command",
	KindInterrupt:      "interrupt",
	KindSuspend:        "suspend",
	KindEOF:            "eof",
	KindClearScreen:    "clear",
	KindHistoryPrev:    "history_prev",
	KindHistoryNext:    "history_next",
	KindCompletion:     "completion",
	KindCursorMove:     "cursor_move",
	KindCustom:         "custom",
}

// String returns the configuration name for the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Action is what a resolved key binding or parsed line produces.
// Exactly one of the payload fields is meaningful, selected by Kind.
type Action struct {
	Kind Kind

	// Text holds the bytes to forward for KindSendToTerminal.
	Text string

	// Command holds the parsed command for KindExecuteCommand.
	Command *command.Agent

	// Direction holds the movement for KindCursorMove.
	Direction Direction

	// Name identifies a KindCustom action.
	Name string

	// Args carries optional arguments for KindCustom actions.
	Args []string
}

// SendToTerminal returns an action forwarding text to the shell.
func SendToTerminal(text string) Action {
	return Action{Kind: KindSendToTerminal, Text: text}
}

// ExecuteCommand returns an action submitting a parsed agent command.
func ExecuteCommand(cmd *command.Agent) Action {
	return Action{Kind: KindExecuteCommand, Command: cmd}
}

// Interrupt returns the SIGINT action.
func Interrupt() Action { return Action{Kind: KindInterrupt} }

// Suspend returns the SIGTSTP action.
func Suspend() Action { return Action{Kind: KindSuspend} }

// EOF returns the end-of-input action.
func EOF() Action { return Action{Kind: KindEOF} }

// ClearScreen returns the screen-clear action.
func ClearScreen() Action { return Action{Kind: KindClearScreen} }

// HistoryPrev returns the previous-history action.
func HistoryPrev() Action { return Action{Kind: KindHistoryPrev} }

// HistoryNext returns the next-history action.
func HistoryNext() Action { return Action{Kind: KindHistoryNext} }

// Completion returns the shell-completion action.
func Completion() Action { return Action{Kind: KindCompletion} }

// CursorMove returns a cursor movement action.
func CursorMove(dir Direction) Action {
	return Action{Kind: KindCursorMove, Direction: dir}
}

// Custom returns a user-defined action.
func Custom(name string, args ...string) Action {
	return Action{Kind: KindCustom, Name: name, Args: args}
}

// ErrUnknownAction is returned by FromSpec for unrecognized action types.
var ErrUnknownAction = errors.New("unknown action type")

// FromSpec builds an action from its configuration spelling.
// The type names match the [[keybinding]] action.type values.
func FromSpec(typ string, args []string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "interrupt":
		return Interrupt(), nil
	case "suspend":
		return Suspend(), nil
	case "eof":
		return EOF(), nil
	case "clear", "clear_screen":
		return ClearScreen(), nil
	case "history_prev":
		return HistoryPrev(), nil
	case "history_next":
		return HistoryNext(), nil
	case "completion":
		return Completion(), nil
	case "cursor_move":
		if len(args) != 1 {
			return Action{}, fmt.Errorf("cursor_move wants one direction argument, got %d", len(args))
		}
		dir, err := ParseDirection(args[0])
		if err != nil {
			return Action{}, err
		}
		return CursorMove(dir), nil
	case "send":
		if len(args) != 1 {
			return Action{}, fmt.Errorf("send wants one text argument, got %d", len(args))
		}
		return SendToTerminal(args[0]), nil
	case "custom":
		if len(args) == 0 {
			return Action{}, errors.New("custom action wants a name argument")
		}
		return Custom(args[0], args[1:]...), nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, typ)
	}
}

// String returns a short human-readable description for logging.
func (a Action) String() string {
	switch a.Kind {
	case KindSendToTerminal:
		return fmt.Sprintf("send_to_terminal(%q)", a.Text)
	case KindCursorMove:
		return fmt.Sprintf("cursor_move(%s)", a.Direction)
	case KindCustom:
		if len(a.Args) > 0 {
			return fmt.Sprintf("custom(%s %s)", a.Name, strings.Join(a.Args, " "))
		}
		return fmt.Sprintf("custom(%s)", a.Name)
	case KindExecuteCommand:
		return "execute_command"
	default:
		return a.Kind.String()
	}
}
