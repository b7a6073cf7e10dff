package input

import (
	"fmt"

	"github.com/lcrowe/termagent/internal/config"
	"github.com/lcrowe/termagent/internal/input/action"
	"github.com/lcrowe/termagent/internal/input/key"
	"github.com/lcrowe/termagent/internal/input/keymap"
)

// defaultBindingPriority applies when a configured binding omits one.
const defaultBindingPriority = 50

// LoadKeybindingsFromConfig installs the stock bindings followed by the
// configured ones, so user bindings can shadow the stock set by
// priority.
func (e *Engine) LoadKeybindingsFromConfig(cfg *config.Config) error {
	if err := e.registry.InstallDefaults(); err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	return e.ApplyKeybindings(cfg.Keybindings)
}

// ApplyKeybindings replaces the configured bindings with the given set:
// entries from a previous call are removed first, so a config reload
// does not accumulate duplicates. Stock bindings are untouched. On a
// validation error nothing is changed.
func (e *Engine) ApplyKeybindings(bindings []config.Keybinding) error {
	type parsed struct {
		chord    string
		act      action.Action
		ctx      keymap.Context
		priority int
		when     string
	}

	specs := make([]parsed, 0, len(bindings))
	for _, kb := range bindings {
		ctxName := kb.Context
		if ctxName == "" {
			ctxName = "global"
		}
		ctx, err := keymap.ParseContext(ctxName)
		if err != nil {
			return fmt.Errorf("keybinding %q: %w", kb.Chord, err)
		}

		act, err := action.FromSpec(kb.Action.Type, kb.Action.Args)
		if err != nil {
			return fmt.Errorf("keybinding %q: %w", kb.Chord, err)
		}

		if _, err := key.ParseChord(kb.Chord); err != nil {
			return fmt.Errorf("keybinding %q: %w", kb.Chord, err)
		}

		priority := kb.Priority
		if priority == 0 {
			priority = defaultBindingPriority
		}
		specs = append(specs, parsed{kb.Chord, act, ctx, priority, kb.When})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range e.configBindings {
		// Already-removed entries are fine; the id may have been taken
		// out through RemoveKeybinding.
		_ = e.registry.Remove(id)
	}
	e.configBindings = e.configBindings[:0]

	for _, s := range specs {
		id, err := e.registry.AddWhen(s.chord, s.act, s.ctx, s.priority, s.when)
		if err != nil {
			return fmt.Errorf("keybinding %q: %w", s.chord, err)
		}
		e.configBindings = append(e.configBindings, id)
	}
	return nil
}
