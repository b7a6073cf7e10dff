package input

import (
	"strings"
	"testing"
	"time"

	"github.com/lcrowe/termagent/internal/command"
	"github.com/lcrowe/termagent/internal/config"
	"github.com/lcrowe/termagent/internal/input/action"
	"github.com/lcrowe/termagent/internal/input/key"
	"github.com/lcrowe/termagent/internal/input/keymap"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e := New(keymap.NewRegistry(), command.NewParser(command.Options{Prefix: 'p'}), cfg)
	t.Cleanup(e.Close)
	return e
}

func newDefaultEngine(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t, Config{})
	if err := e.LoadKeybindingsFromConfig(nil); err != nil {
		t.Fatal(err)
	}
	return e
}

// configKeybinding flattens config.Keybinding for test tables.
type configKeybinding struct {
	Chord    string
	Context  string
	Priority int
	When     string
	Type     string
	Args     []string
}

func configWith(kbs ...configKeybinding) *config.Config {
	cfg := config.Default()
	for _, kb := range kbs {
		cfg.Keybindings = append(cfg.Keybindings, config.Keybinding{
			Chord:    kb.Chord,
			Context:  kb.Context,
			Priority: kb.Priority,
			When:     kb.When,
			Action:   config.ActionSpec{Type: kb.Type, Args: kb.Args},
		})
	}
	return &cfg
}

// typeString feeds s rune by rune; '\n' becomes Enter.
func typeString(e *Engine, s string) {
	for _, r := range s {
		if r == '\n' {
			e.ProcessKeyEvent(key.NewSpecialEvent(key.KeyEnter, key.ModNone))
			continue
		}
		e.ProcessKeyEvent(key.NewRuneEvent(r, key.ModNone))
	}
}

func drain(e *Engine) []action.Action {
	var out []action.Action
	for {
		act, ok := e.TryReceiveAction()
		if !ok {
			return out
		}
		out = append(out, act)
	}
}

func joinedText(acts []action.Action) string {
	var b strings.Builder
	for _, a := range acts {
		if a.Kind == action.KindSendToTerminal {
			b.WriteString(a.Text)
		}
	}
	return b.String()
}

// Plain typing forwards every character and never opens a capture.
func TestPlainTyping(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "hi")
	acts := drain(e)
	if len(acts) != 2 {
		t.Fatalf("got %d actions, want 2: %v", len(acts), acts)
	}
	if acts[0].Text != "h" || acts[1].Text != "i" {
		t.Errorf("forwarded %q, %q; want h, i", acts[0].Text, acts[1].Text)
	}
	if got := e.Stats().PrefixActivations; got != 0 {
		t.Errorf("PrefixActivations = %d, want 0", got)
	}
}

// The prefix at a command boundary captures the line and submits it as
// one parsed command.
func TestPrefixCommand(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "phelp\n")
	acts := drain(e)
	if len(acts) != 1 {
		t.Fatalf("got %d actions, want 1: %v", len(acts), acts)
	}
	if acts[0].Kind != action.KindExecuteCommand {
		t.Fatalf("Kind = %v, want execute_command", acts[0].Kind)
	}
	cmd := acts[0].Command
	if cmd.Prompt != "help" {
		t.Errorf("Prompt = %q, want help", cmd.Prompt)
	}
	if cmd.ModelOverride != "" || cmd.Temperature != nil {
		t.Error("unexpected overrides on bare prompt")
	}
	if e.CommandBuffer() != "" {
		t.Errorf("buffer not cleared: %q", e.CommandBuffer())
	}
	if got := e.Stats().PrefixActivations; got != 1 {
		t.Errorf("PrefixActivations = %d, want 1", got)
	}
}

// Mid-line the prefix character is ordinary input.
func TestPrefixRequiresCommandBoundary(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "grep p")
	acts := drain(e)
	if got := joinedText(acts); got != "grep p" {
		t.Errorf("forwarded %q, want %q", got, "grep p")
	}
	if e.IsPrefixMode() {
		t.Error("prefix must not activate mid-line")
	}

	// Enter reopens the boundary.
	typeString(e, "\np")
	drain(e)
	if !e.IsPrefixMode() {
		t.Error("prefix should activate after Enter")
	}
}

// Forwarded whitespace closes the boundary just like any other text,
// matching the parser's rule that " p hello" is ordinary input.
func TestWhitespaceClosesBoundary(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, " p")
	acts := drain(e)
	if got := joinedText(acts); got != " p" {
		t.Errorf("forwarded %q, want %q", got, " p")
	}
	if e.IsPrefixMode() {
		t.Error("prefix must not activate after forwarded whitespace")
	}
}

// Backslash forwards the next event verbatim without prefix handling.
func TestEscapeLiteral(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, `\p`)
	acts := drain(e)
	if len(acts) != 1 || acts[0].Text != "p" {
		t.Fatalf("got %v, want single SendToTerminal(p)", acts)
	}
	if e.Mode() != ModeNormal {
		t.Errorf("mode = %v, want normal", e.Mode())
	}
	if got := e.Stats().PrefixActivations; got != 0 {
		t.Errorf("PrefixActivations = %d, want 0", got)
	}
}

func TestEscapeArmedConsumesOneEvent(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, `\\`)
	acts := drain(e)
	if len(acts) != 1 || acts[0].Text != `\` {
		t.Fatalf("got %v, want single backslash", acts)
	}

	// The arm is spent: the next prefix char activates normally.
	typeString(e, "\np")
	drain(e)
	if !e.IsPrefixMode() {
		t.Error("prefix should activate once the arm is spent")
	}
}

// Flags survive the keystroke path end to end.
func TestPrefixCommandWithFlags(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "p --model gpt-4 --temp 0.8 explain rust\n")
	acts := drain(e)
	if len(acts) != 1 || acts[0].Kind != action.KindExecuteCommand {
		t.Fatalf("got %v, want one execute_command", acts)
	}
	cmd := acts[0].Command
	if cmd.Prompt != "explain rust" || cmd.ModelOverride != "gpt-4" {
		t.Errorf("parsed %+v", cmd)
	}
	if cmd.Temperature == nil || *cmd.Temperature != 0.8 {
		t.Errorf("Temperature = %v, want 0.8", cmd.Temperature)
	}
}

// Parse failures surface as a parse_error action and the engine
// returns to Normal.
func TestParseErrorAction(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "p --temp 5.0 test\n")
	acts := drain(e)
	if len(acts) != 1 {
		t.Fatalf("got %d actions, want 1: %v", len(acts), acts)
	}
	a := acts[0]
	if a.Kind != action.KindCustom || a.Name != "parse_error" {
		t.Fatalf("got %v, want custom(parse_error)", a)
	}
	if len(a.Args) != 1 || a.Args[0] != "OutOfRange(temp)" {
		t.Errorf("Args = %v, want [OutOfRange(temp)]", a.Args)
	}
	if e.Mode() != ModeNormal {
		t.Errorf("mode = %v, want normal", e.Mode())
	}
}

// Ctrl+C hits the stock interrupt binding.
func TestDefaultInterruptBinding(t *testing.T) {
	e := newDefaultEngine(t)

	e.ProcessKeyEvent(key.NewRuneEvent('c', key.ModCtrl))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Kind != action.KindInterrupt {
		t.Fatalf("got %v, want interrupt", acts)
	}
}

// Custom bindings resolve by priority; the losing insert is counted.
func TestCustomBindingPriority(t *testing.T) {
	e := newTestEngine(t, Config{})

	if _, err := e.AddCustomKeybinding("ctrl+shift+d", action.Custom("debug", "stats"), keymap.ContextGlobal, 95); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddCustomKeybinding("ctrl+shift+d", action.Custom("other"), keymap.ContextGlobal, 90); err != nil {
		t.Fatal(err)
	}

	e.ProcessKeyEvent(key.NewRuneEvent('d', key.ModCtrl|key.ModShift))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Name != "debug" {
		t.Fatalf("got %v, want custom(debug)", acts)
	}
	if got := e.Stats().ConflictsResolved; got != 1 {
		t.Errorf("ConflictsResolved = %d, want 1", got)
	}
}

func TestRemoveKeybinding(t *testing.T) {
	e := newTestEngine(t, Config{})

	id, err := e.AddCustomKeybinding("ctrl+t", action.Custom("x"), keymap.ContextGlobal, 50)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveKeybinding(id); err != nil {
		t.Fatal(err)
	}

	e.ProcessKeyEvent(key.NewRuneEvent('t', key.ModCtrl))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Kind != action.KindSendToTerminal {
		t.Fatalf("removed binding should forward, got %v", acts)
	}
}

// Shell-mode contexts gate the line-editing bindings.
func TestShellModeContexts(t *testing.T) {
	e := newDefaultEngine(t)

	e.SetShellMode(ShellEmacs)
	e.ProcessKeyEvent(key.NewRuneEvent('p', key.ModCtrl))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Kind != action.KindHistoryPrev {
		t.Fatalf("emacs ctrl+p: got %v, want history_prev", acts)
	}

	e.SetShellMode(ShellRaw)
	e.ProcessKeyEvent(key.NewRuneEvent('p', key.ModCtrl))
	acts = drain(e)
	if len(acts) != 1 || acts[0].Kind != action.KindSendToTerminal {
		t.Fatalf("raw ctrl+p: got %v, want passthrough", acts)
	}
	if acts[0].Text != "\x10" {
		t.Errorf("raw ctrl+p forwarded %q, want DLE", acts[0].Text)
	}
}

// Escape cancels the capture without emitting anything.
func TestPrefixEscapeCancels(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "phel")
	e.ProcessKeyEvent(key.NewSpecialEvent(key.KeyEscape, key.ModNone))

	if acts := drain(e); len(acts) != 0 {
		t.Errorf("cancel emitted %v", acts)
	}
	if e.Mode() != ModeNormal || e.CommandBuffer() != "" {
		t.Errorf("mode %v buffer %q after cancel", e.Mode(), e.CommandBuffer())
	}

	// The boundary is still open.
	typeString(e, "p")
	if !e.IsPrefixMode() {
		t.Error("prefix should activate after a cancel")
	}
}

// Backspace edits the buffer and an empty buffer stays captured.
func TestPrefixBackspace(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "pab")
	e.ProcessKeyEvent(key.NewSpecialEvent(key.KeyBackspace, key.ModNone))
	if got := e.CommandBuffer(); got != "a" {
		t.Errorf("buffer = %q, want a", got)
	}

	e.ProcessKeyEvent(key.NewSpecialEvent(key.KeyBackspace, key.ModNone))
	e.ProcessKeyEvent(key.NewSpecialEvent(key.KeyBackspace, key.ModNone))
	if got := e.CommandBuffer(); got != "" {
		t.Errorf("buffer = %q, want empty", got)
	}
	if !e.IsPrefixMode() {
		t.Error("empty buffer should remain captured")
	}
}

// A trailing backslash continues the command onto the next line.
func TestContinuation(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, `pexplain this\`+"\n")
	if e.Mode() != ModeContinuation {
		t.Fatalf("mode = %v, want continuation", e.Mode())
	}
	if acts := drain(e); len(acts) != 0 {
		t.Fatalf("continuation emitted early: %v", acts)
	}

	typeString(e, "in detail\n")
	acts := drain(e)
	if len(acts) != 1 || acts[0].Kind != action.KindExecuteCommand {
		t.Fatalf("got %v, want one execute_command", acts)
	}
	cmd := acts[0].Command
	if cmd.Prompt != "explain this\nin detail" {
		t.Errorf("Prompt = %q", cmd.Prompt)
	}
	if !cmd.IsContinuation {
		t.Error("IsContinuation not set")
	}
	if e.Mode() != ModeNormal {
		t.Errorf("mode = %v, want normal", e.Mode())
	}
}

func TestContinuationMultipleLines(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "pone\\\ntwo\\\nthree\n")
	acts := drain(e)
	if len(acts) != 1 || acts[0].Kind != action.KindExecuteCommand {
		t.Fatalf("got %v", acts)
	}
	if got := acts[0].Command.Prompt; got != "one\ntwo\nthree" {
		t.Errorf("Prompt = %q", got)
	}
}

// A stalled capture expires and the expiring event is reprocessed
// normally.
func TestPrefixTimeout(t *testing.T) {
	e := newTestEngine(t, Config{PrefixTimeout: 50 * time.Millisecond})

	t0 := time.Now()
	ev := key.NewRuneEvent('p', key.ModNone)
	ev.Timestamp = t0
	e.ProcessKeyEvent(ev)
	if !e.IsPrefixMode() {
		t.Fatal("prefix did not activate")
	}

	late := key.NewRuneEvent('x', key.ModNone)
	late.Timestamp = t0.Add(200 * time.Millisecond)
	e.ProcessKeyEvent(late)

	if e.IsPrefixMode() {
		t.Error("capture should have expired")
	}
	acts := drain(e)
	if len(acts) != 1 || acts[0].Text != "x" {
		t.Errorf("late event should forward normally, got %v", acts)
	}
}

func TestPrefixTimeoutDisabled(t *testing.T) {
	e := newTestEngine(t, Config{PrefixTimeout: -1})

	t0 := time.Now()
	ev := key.NewRuneEvent('p', key.ModNone)
	ev.Timestamp = t0
	e.ProcessKeyEvent(ev)

	late := key.NewRuneEvent('x', key.ModNone)
	late.Timestamp = t0.Add(time.Hour)
	e.ProcessKeyEvent(late)

	if !e.IsPrefixMode() || e.CommandBuffer() != "x" {
		t.Errorf("disabled timeout must keep the capture: mode %v buffer %q",
			e.Mode(), e.CommandBuffer())
	}
}

// Bracketed paste bypasses prefix detection entirely.
func TestPastePassthrough(t *testing.T) {
	e := newTestEngine(t, Config{})

	ev := key.NewRuneEvent('v', key.ModCtrl).WithText("\x1b[200~p not a command\x1b[201~")
	e.ProcessKeyEvent(ev)

	acts := drain(e)
	if len(acts) != 1 || acts[0].Text != "p not a command" {
		t.Fatalf("got %v, want unwrapped paste", acts)
	}
	if e.IsPrefixMode() {
		t.Error("paste must not activate the prefix")
	}
	if got := e.Stats().PrefixActivations; got != 0 {
		t.Errorf("PrefixActivations = %d, want 0", got)
	}
}

// Pasting into an open capture appends to the buffer.
func TestPasteIntoCapture(t *testing.T) {
	e := newTestEngine(t, Config{})

	typeString(e, "p")
	ev := key.NewRuneEvent('v', key.ModCtrl).WithText("\x1b[200~summarize\x1b[201~")
	e.ProcessKeyEvent(ev)

	if got := e.CommandBuffer(); got != "summarize" {
		t.Errorf("buffer = %q, want summarize", got)
	}
	if acts := drain(e); len(acts) != 0 {
		t.Errorf("paste into capture emitted %v", acts)
	}
}

// Interrupt still fires while a capture is open.
func TestBindingDuringCapture(t *testing.T) {
	e := newDefaultEngine(t)

	typeString(e, "phel")
	e.ProcessKeyEvent(key.NewRuneEvent('c', key.ModCtrl))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Kind != action.KindInterrupt {
		t.Fatalf("got %v, want interrupt", acts)
	}
}

// IME text is authoritative for forwarding.
func TestComposedTextForwarding(t *testing.T) {
	e := newTestEngine(t, Config{})

	e.ProcessKeyEvent(key.NewRuneEvent('?', key.ModNone).WithText("你好"))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Text != "你好" {
		t.Fatalf("got %v, want composed text", acts)
	}
}

func TestListActiveKeybindings(t *testing.T) {
	e := newDefaultEngine(t)

	bindings := e.ListActiveKeybindings()
	if len(bindings) == 0 {
		t.Fatal("no active bindings after defaults")
	}
	found := false
	for _, b := range bindings {
		if b.Chord == "ctrl+c" && b.Action == "interrupt" {
			found = true
		}
	}
	if !found {
		t.Errorf("ctrl+c interrupt missing from %v", bindings)
	}
}

// Seeding from configuration wires context, priority and condition.
func TestLoadKeybindingsFromConfig(t *testing.T) {
	e := newTestEngine(t, Config{})

	cfg := configWith(configKeybinding{
		Chord:    "ctrl+shift+d",
		Context:  "global",
		Priority: 95,
		Type:     "custom",
		Args:     []string{"debug", "stats"},
	})
	if err := e.LoadKeybindingsFromConfig(cfg); err != nil {
		t.Fatal(err)
	}

	e.ProcessKeyEvent(key.NewRuneEvent('d', key.ModCtrl|key.ModShift))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Name != "debug" || len(acts[0].Args) != 1 {
		t.Fatalf("got %v, want custom(debug stats)", acts)
	}
}

// Reapplying a configuration replaces the previous set instead of
// stacking duplicates, so reloads neither grow the registry nor inflate
// the conflict counter.
func TestApplyKeybindingsReplacesOnReload(t *testing.T) {
	e := newTestEngine(t, Config{})

	kb := configKeybinding{
		Chord: "ctrl+shift+d", Context: "global", Priority: 95,
		Type: "custom", Args: []string{"debug"},
	}
	for i := 0; i < 5; i++ {
		if err := e.ApplyKeybindings(configWith(kb).Keybindings); err != nil {
			t.Fatal(err)
		}
	}

	if got := e.Stats().ConflictsResolved; got != 0 {
		t.Errorf("ConflictsResolved = %d after reloads of one unchanged binding, want 0", got)
	}
	count := 0
	for _, b := range e.ListActiveKeybindings() {
		if b.Chord == "ctrl+shift+d" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("ctrl+shift+d appears %d times, want 1", count)
	}

	// A changed binding takes effect on reload.
	kb.Args = []string{"trace"}
	if err := e.ApplyKeybindings(configWith(kb).Keybindings); err != nil {
		t.Fatal(err)
	}
	e.ProcessKeyEvent(key.NewRuneEvent('d', key.ModCtrl|key.ModShift))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Name != "trace" {
		t.Fatalf("got %v, want custom(trace)", acts)
	}
}

// An invalid reload leaves the previous bindings in place.
func TestApplyKeybindingsInvalidLeavesOldSet(t *testing.T) {
	e := newTestEngine(t, Config{})

	good := configKeybinding{Chord: "ctrl+t", Context: "global", Type: "custom", Args: []string{"ok"}}
	if err := e.ApplyKeybindings(configWith(good).Keybindings); err != nil {
		t.Fatal(err)
	}
	bad := configKeybinding{Chord: "hyper+x", Context: "global", Type: "eof"}
	if err := e.ApplyKeybindings(configWith(bad).Keybindings); err == nil {
		t.Fatal("invalid reload should fail")
	}

	e.ProcessKeyEvent(key.NewRuneEvent('t', key.ModCtrl))
	acts := drain(e)
	if len(acts) != 1 || acts[0].Name != "ok" {
		t.Fatalf("previous binding lost after failed reload: %v", acts)
	}
}

// Introspection is safe while another goroutine feeds events.
func TestConcurrentIntrospection(t *testing.T) {
	e := newTestEngine(t, Config{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = e.CommandBuffer()
			_ = e.IsPrefixMode()
			_ = e.Mode()
			_ = e.ShellMode()
		}
	}()

	for i := 0; i < 50; i++ {
		typeString(e, "phello")
		e.ProcessKeyEvent(key.NewSpecialEvent(key.KeyEscape, key.ModNone))
	}
	<-done
	drain(e)

	if e.Mode() != ModeNormal || e.CommandBuffer() != "" {
		t.Errorf("mode %v buffer %q after cancels", e.Mode(), e.CommandBuffer())
	}
}

func TestLoadKeybindingsBadConfig(t *testing.T) {
	bad := []configKeybinding{
		{Chord: "hyper+x", Context: "global", Type: "eof"},
		{Chord: "ctrl+x", Context: "nowhere", Type: "eof"},
		{Chord: "ctrl+x", Context: "global", Type: "frobnicate"},
	}
	for _, kb := range bad {
		e := newTestEngine(t, Config{})
		if err := e.LoadKeybindingsFromConfig(configWith(kb)); err == nil {
			t.Errorf("keybinding %+v should fail", kb)
		}
	}
}

// After warm-up, repeated chords are served from the cache.
func TestCacheHitRate(t *testing.T) {
	e := newDefaultEngine(t)

	for i := 0; i < 1000; i++ {
		e.ProcessKeyEvent(key.NewRuneEvent('x', key.ModCtrl))
	}
	drain(e)

	st := e.Stats()
	if st.TotalKeysProcessed != 1000 {
		t.Errorf("TotalKeysProcessed = %d, want 1000", st.TotalKeysProcessed)
	}
	total := st.CacheHits + st.CacheMisses
	if total != 1000 {
		t.Errorf("hits+misses = %d, want 1000", total)
	}
	if rate := float64(st.CacheHits) / float64(total); rate < 0.99 {
		t.Errorf("cache hit rate %.3f, want >= 0.99", rate)
	}
	if st.AvgProcessingTimeNs == 0 {
		t.Error("average processing time not recorded")
	}
}

func BenchmarkProcessKeyEventBound(b *testing.B) {
	e := New(keymap.NewRegistry(), command.NewParser(command.Options{Prefix: 'p'}), Config{})
	defer e.Close()
	if err := e.registry.InstallDefaults(); err != nil {
		b.Fatal(err)
	}
	ev := key.NewRuneEvent('c', key.ModCtrl)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.ProcessKeyEvent(ev)
		e.TryReceiveAction()
	}
}

func BenchmarkProcessKeyEventPassthrough(b *testing.B) {
	e := New(keymap.NewRegistry(), command.NewParser(command.Options{Prefix: 'p'}), Config{})
	defer e.Close()
	ev := key.NewRuneEvent('x', key.ModCtrl)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.ProcessKeyEvent(ev)
		e.TryReceiveAction()
	}
}
