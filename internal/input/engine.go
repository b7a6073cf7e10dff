// Package input implements the keystroke dispatch engine: every key
// event is either forwarded to the shell, consumed by a binding, or
// captured into the agent command buffer behind the prefix character.
package input

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lcrowe/termagent/internal/command"
	"github.com/lcrowe/termagent/internal/input/action"
	"github.com/lcrowe/termagent/internal/input/key"
	"github.com/lcrowe/termagent/internal/input/keymap"
)

// Mode is the engine's input state.
type Mode uint8

const (
	// ModeNormal forwards events to the shell or resolves bindings.
	ModeNormal Mode = iota

	// ModePrefixActive captures typed characters into the command buffer.
	ModePrefixActive

	// ModeEscapeArmed forwards exactly one following event verbatim.
	ModeEscapeArmed

	// ModeContinuation captures further lines of a multi-line command.
	ModeContinuation
)

var modeNames = [...]string{
	ModeNormal:       "normal",
	ModePrefixActive: "prefix",
	ModeEscapeArmed:  "escape",
	ModeContinuation: "continuation",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

const (
	// DefaultPrefixTimeout expires an idle command capture.
	DefaultPrefixTimeout = 5 * time.Second

	pasteStart = "\x1b[200~"
	pasteEnd   = "\x1b[201~"

	// commandBufferCapacity pre-grows the capture buffer so appending
	// a typical command does not reallocate.
	commandBufferCapacity = 256
)

// Config carries the engine's tunables.
type Config struct {
	// Prefix is the command prefix character. Zero inherits the
	// parser's prefix, which is the usual setup.
	Prefix rune

	// ShellMode selects the initial editing-mode context.
	ShellMode ShellMode

	// PrefixTimeout expires a stalled capture, measured from prefix
	// activation. Zero selects the default; negative disables.
	PrefixTimeout time.Duration

	// DispatchCapacity bounds the action queue. Zero selects the
	// default.
	DispatchCapacity int
}

// Engine is the input dispatch core. ProcessKeyEvent must be called
// from a single goroutine; introspection (Stats, CommandBuffer,
// ListActiveKeybindings) is safe from others.
type Engine struct {
	registry   *keymap.Registry
	parser     *command.Parser
	dispatcher *Dispatcher

	prefix        rune
	prefixTimeout time.Duration

	// mu guards the state below so the host can read the mode and
	// buffer preview from its render goroutine.
	mu              sync.Mutex
	mode            Mode
	shellMode       ShellMode
	agentActive     bool
	lineEmpty       bool
	commandBuf      []byte
	continuation    []string
	prefixEnteredAt time.Time
	configBindings  []uuid.UUID

	// chordBuf is reused across events so resolution never allocates.
	chordBuf []byte

	metrics metrics
}

// New builds an engine around a binding registry and command parser.
func New(registry *keymap.Registry, parser *command.Parser, cfg Config) *Engine {
	prefix := cfg.Prefix
	if prefix == 0 {
		prefix = parser.Prefix()
	}
	timeout := cfg.PrefixTimeout
	if timeout == 0 {
		timeout = DefaultPrefixTimeout
	} else if timeout < 0 {
		timeout = 0
	}
	return &Engine{
		registry:      registry,
		parser:        parser,
		dispatcher:    NewDispatcher(cfg.DispatchCapacity),
		prefix:        prefix,
		prefixTimeout: timeout,
		shellMode:     cfg.ShellMode,
		lineEmpty:     true,
		commandBuf:    make([]byte, 0, commandBufferCapacity),
		chordBuf:      make([]byte, 0, 64),
	}
}

// Close releases registry resources.
func (e *Engine) Close() {
	e.registry.Close()
}

// SetShellMode switches the editing-mode binding context.
func (e *Engine) SetShellMode(mode ShellMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shellMode = mode
}

// ShellMode returns the current editing mode.
func (e *Engine) ShellMode() ShellMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shellMode
}

// SetAgentActive toggles the agent binding context, typically while an
// exchange is streaming.
func (e *Engine) SetAgentActive(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.agentActive = active
}

// AddCustomKeybinding registers a binding at runtime.
func (e *Engine) AddCustomKeybinding(chord string, act action.Action, ctx keymap.Context, priority int) (uuid.UUID, error) {
	return e.registry.Add(chord, act, ctx, priority)
}

// RemoveKeybinding removes a binding by id.
func (e *Engine) RemoveKeybinding(id uuid.UUID) error {
	return e.registry.Remove(id)
}

// ListActiveKeybindings enumerates live bindings.
func (e *Engine) ListActiveKeybindings() []keymap.Binding {
	return e.registry.ListActive()
}

// IsPrefixMode reports whether a command capture is open, so the host
// can render the buffer preview.
func (e *Engine) IsPrefixMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isPrefixModeLocked()
}

func (e *Engine) isPrefixModeLocked() bool {
	return e.mode == ModePrefixActive || e.mode == ModeContinuation
}

// Mode returns the current input state.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// CommandBuffer returns the text captured so far on the current line.
func (e *Engine) CommandBuffer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.commandBuf)
}

// ReceiveAction blocks for the next dispatched action.
func (e *Engine) ReceiveAction(ctx context.Context) (action.Action, error) {
	return e.dispatcher.Pop(ctx)
}

// TryReceiveAction dequeues the next action without blocking.
func (e *Engine) TryReceiveAction() (action.Action, bool) {
	return e.dispatcher.TryPop()
}

// Stats snapshots the engine counters.
func (e *Engine) Stats() Stats {
	hits, misses := e.registry.CacheStats()
	return Stats{
		TotalKeysProcessed:  e.metrics.totalKeys.Load(),
		AvgProcessingTimeNs: e.metrics.avgProcessingNs.Load(),
		CacheHits:           hits,
		CacheMisses:         misses,
		PrefixActivations:   e.metrics.prefixActivations.Load(),
		ConflictsResolved:   e.registry.ConflictsResolved(),
		DroppedActions:      e.dispatcher.Dropped(),
	}
}

// ProcessKeyEvent runs one event through the state machine. It never
// blocks and never fails; malformed commands surface as parse_error
// actions.
func (e *Engine) ProcessKeyEvent(ev key.Event) {
	start := time.Now()
	e.mu.Lock()
	e.process(ev)
	e.mu.Unlock()
	e.metrics.recordEvent(time.Since(start))
}

func (e *Engine) process(ev key.Event) {
	if ev.Text != "" && strings.HasPrefix(ev.Text, pasteStart) {
		e.handlePaste(ev.Text)
		return
	}

	if e.isPrefixModeLocked() && e.prefixTimeout > 0 && !e.prefixEnteredAt.IsZero() {
		ts := ev.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		if ts.Sub(e.prefixEnteredAt) > e.prefixTimeout {
			e.cancelCapture()
		}
	}

	switch e.mode {
	case ModeNormal:
		e.processNormal(ev)
	case ModeEscapeArmed:
		e.mode = ModeNormal
		e.forward(ev)
	case ModePrefixActive, ModeContinuation:
		e.processCapture(ev)
	}
}

func (e *Engine) processNormal(ev key.Event) {
	if ev.IsBareRune('\\') {
		e.mode = ModeEscapeArmed
		return
	}
	if e.lineEmpty && ev.IsBareRune(e.prefix) {
		e.enterPrefix(ev)
		return
	}

	e.chordBuf = ev.AppendChord(e.chordBuf[:0])
	if act, ok := e.registry.Resolve(e.chordBuf, e.activeContexts(), e.condEnv()); ok {
		e.push(act)
		return
	}
	e.forward(ev)
}

// forward emits the event's bytes to the shell and tracks the command
// boundary: Enter opens a new line, anything else forwarded closes it.
// This keeps the live test identical to the parser's prefix-at-index-0
// rule, where " p" is ordinary input.
func (e *Engine) forward(ev key.Event) {
	text := forwardSequence(ev)
	if text == "" {
		return
	}
	e.push(action.SendToTerminal(text))

	if ev.IsEnter() || strings.HasSuffix(text, "\n") {
		e.lineEmpty = true
		return
	}
	e.lineEmpty = false
}

func (e *Engine) enterPrefix(ev key.Event) {
	e.mode = ModePrefixActive
	e.commandBuf = e.commandBuf[:0]
	e.continuation = e.continuation[:0]
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	e.prefixEnteredAt = ts
	e.metrics.prefixActivations.Add(1)
}

func (e *Engine) processCapture(ev key.Event) {
	switch {
	case ev.IsEnter():
		line := string(e.commandBuf)
		if strings.HasSuffix(line, "\\") {
			e.continuation = append(e.continuation, strings.TrimSuffix(line, "\\"))
			e.commandBuf = e.commandBuf[:0]
			e.mode = ModeContinuation
			return
		}
		e.submitCapture(line)

	case ev.IsEscape():
		e.cancelCapture()

	case ev.IsBackspace():
		// An empty buffer stays in capture; Escape is the way out.
		if n := len(e.commandBuf); n > 0 {
			_, size := utf8.DecodeLastRune(e.commandBuf)
			e.commandBuf = e.commandBuf[:n-size]
		}

	case ev.IsChar() && ev.Modifiers&^key.ModShift == 0:
		if ev.Text != "" {
			e.commandBuf = append(e.commandBuf, ev.Text...)
		} else {
			e.commandBuf = utf8.AppendRune(e.commandBuf, ev.Rune)
		}

	default:
		// Modified keys can still hit prefix-context bindings
		// (interrupt, for one). Anything unbound is swallowed.
		e.chordBuf = ev.AppendChord(e.chordBuf[:0])
		if act, ok := e.registry.Resolve(e.chordBuf, e.activeContexts(), e.condEnv()); ok {
			e.push(act)
		}
	}
}

// submitCapture closes the capture, joins continuation lines, parses,
// and dispatches either the command or a parse_error action.
func (e *Engine) submitCapture(line string) {
	isContinuation := len(e.continuation) > 0
	full := line
	if isContinuation {
		parts := make([]string, 0, len(e.continuation)+1)
		parts = append(parts, e.continuation...)
		parts = append(parts, line)
		full = strings.Join(parts, "\n")
	}

	e.continuation = e.continuation[:0]
	e.commandBuf = e.commandBuf[:0]
	e.mode = ModeNormal
	e.lineEmpty = true

	agent, err := e.parser.ParseAgent(full)
	if err != nil {
		e.push(action.Custom("parse_error", err.Error()))
		return
	}
	agent.IsContinuation = isContinuation
	e.push(action.ExecuteCommand(agent))
}

// cancelCapture discards the buffer and returns to Normal. Nothing was
// forwarded to the shell during capture, so the command boundary is
// still open.
func (e *Engine) cancelCapture() {
	e.continuation = e.continuation[:0]
	e.commandBuf = e.commandBuf[:0]
	e.mode = ModeNormal
	e.lineEmpty = true
}

// handlePaste unwraps a bracketed paste. Pasted text never activates
// the prefix or the escape arm; in capture modes it lands in the
// command buffer, otherwise it goes to the shell as one action.
func (e *Engine) handlePaste(text string) {
	content := strings.TrimPrefix(text, pasteStart)
	content = strings.TrimSuffix(content, pasteEnd)
	if content == "" {
		return
	}

	if e.isPrefixModeLocked() {
		e.commandBuf = append(e.commandBuf, content...)
		return
	}
	if e.mode == ModeEscapeArmed {
		e.mode = ModeNormal
	}
	e.push(action.SendToTerminal(content))
	e.lineEmpty = strings.HasSuffix(content, "\n")
}

func (e *Engine) activeContexts() keymap.Context {
	ctx := keymap.ContextGlobal | e.shellMode.Context()
	switch e.mode {
	case ModePrefixActive:
		ctx |= keymap.ContextPrefix
	case ModeContinuation:
		ctx |= keymap.ContextContinuation
	}
	if e.agentActive {
		ctx |= keymap.ContextAgent
	}
	return ctx
}

func (e *Engine) condEnv() keymap.CondEnv {
	return keymap.CondEnv{
		Mode:      e.mode.String(),
		ShellMode: e.shellMode.String(),
		LineEmpty: e.lineEmpty,
	}
}

func (e *Engine) push(act action.Action) {
	e.dispatcher.Push(act)
}
