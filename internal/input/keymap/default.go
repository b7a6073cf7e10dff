package keymap

import "github.com/lcrowe/termagent/internal/input/action"

// defaultBindings are the stock bindings installed before any
// configuration is applied. Signal keys bind globally at high priority;
// line-editing keys bind only in emacs shell mode so vi and raw
// sessions keep their own semantics.
var defaultBindings = []struct {
	chord    string
	act      action.Action
	ctx      Context
	priority int
}{
	{"ctrl+c", action.Interrupt(), ContextGlobal, 100},
	{"ctrl+d", action.EOF(), ContextGlobal, 100},
	{"ctrl+z", action.Suspend(), ContextGlobal, 100},
	{"ctrl+l", action.ClearScreen(), ContextGlobal, 90},

	{"ctrl+p", action.HistoryPrev(), ContextShellEmacs, 70},
	{"ctrl+n", action.HistoryNext(), ContextShellEmacs, 70},
	{"ctrl+a", action.CursorMove(action.DirLineStart), ContextShellEmacs, 70},
	{"ctrl+e", action.CursorMove(action.DirLineEnd), ContextShellEmacs, 70},
	{"ctrl+b", action.CursorMove(action.DirLeft), ContextShellEmacs, 70},
	{"ctrl+f", action.CursorMove(action.DirRight), ContextShellEmacs, 70},
	{"alt+b", action.CursorMove(action.DirWordBack), ContextShellEmacs, 70},
	{"alt+f", action.CursorMove(action.DirWordForward), ContextShellEmacs, 70},
}

// InstallDefaults registers the stock bindings.
func (r *Registry) InstallDefaults() error {
	for _, b := range defaultBindings {
		if _, err := r.Add(b.chord, b.act, b.ctx, b.priority); err != nil {
			return err
		}
	}
	return nil
}
