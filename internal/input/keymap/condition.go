package keymap

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// CondEnv is the engine state a binding condition can see. It is
// exposed to the Lua expression as the globals mode, shell_mode and
// line_empty.
type CondEnv struct {
	Mode      string
	ShellMode string
	LineEmpty bool
}

// conditionEvaluator runs optional per-binding "when" expressions.
// A single Lua state is reused under a lock; conditions are rare and
// never on the cached hot path, so contention is not a concern.
type conditionEvaluator struct {
	mu       sync.Mutex
	state    *lua.LState
	compiled map[string]*lua.LFunction
}

func newConditionEvaluator() *conditionEvaluator {
	return &conditionEvaluator{compiled: make(map[string]*lua.LFunction)}
}

// eval compiles expr on first use and evaluates it against env.
// Any non-nil, non-false result counts as true.
func (e *conditionEvaluator) eval(expr string, env CondEnv) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		e.state = lua.NewState(lua.Options{SkipOpenLibs: true})
	}
	L := e.state

	fn, ok := e.compiled[expr]
	if !ok {
		var err error
		fn, err = L.LoadString("return (" + expr + ")")
		if err != nil {
			return false, fmt.Errorf("compile condition %q: %w", expr, err)
		}
		e.compiled[expr] = fn
	}

	L.SetGlobal("mode", lua.LString(env.Mode))
	L.SetGlobal("shell_mode", lua.LString(env.ShellMode))
	L.SetGlobal("line_empty", lua.LBool(env.LineEmpty))

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", expr, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return !lua.LVIsFalse(ret), nil
}

func (e *conditionEvaluator) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != nil {
		e.state.Close()
		e.state = nil
	}
}
