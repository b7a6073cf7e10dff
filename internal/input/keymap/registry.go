package keymap

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lcrowe/termagent/internal/input/action"
	"github.com/lcrowe/termagent/internal/input/key"
)

// Registry errors.
var (
	ErrInvalidChord   = errors.New("invalid chord")
	ErrInvalidContext = errors.New("invalid context")
	ErrNotFound       = errors.New("binding not found")
)

// Entry is one registered binding. For every chord, at most one entry
// with an overlapping context is live at a time: the one with the
// highest priority, earliest-added on ties.
type Entry struct {
	ID       uuid.UUID
	Chord    string
	Action   action.Action
	Context  Context
	Priority int

	// When is an optional Lua condition; an entry with a condition is
	// skipped when the expression evaluates false.
	When string

	seq  uint64
	live bool
}

// Binding is the introspection view of a live entry.
type Binding struct {
	Chord  string
	Action string
}

// Registry is the binding store. Lookups take a read lock and go
// through the LRU cache; mutations take the write lock and invalidate
// the cache wholesale.
type Registry struct {
	mu      sync.RWMutex
	byChord map[string][]*Entry
	byID    map[uuid.UUID]*Entry
	seq     uint64

	cache *lookupCache
	cond  *conditionEvaluator

	conflicts atomic.Uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byChord: make(map[string][]*Entry),
		byID:    make(map[uuid.UUID]*Entry),
		cache:   newLookupCache(defaultCacheCapacity),
		cond:    newConditionEvaluator(),
	}
}

// Close releases the condition evaluator.
func (r *Registry) Close() {
	r.cond.close()
}

// Add registers a binding. The chord is canonicalized; unknown keys or
// modifiers return ErrInvalidChord. Registering over an existing chord
// in an overlapping context is not an error: the conflict counter is
// incremented and the higher-priority entry stays live.
func (r *Registry) Add(chordSpec string, act action.Action, ctx Context, priority int) (uuid.UUID, error) {
	return r.AddWhen(chordSpec, act, ctx, priority, "")
}

// AddWhen registers a binding with an optional Lua condition.
func (r *Registry) AddWhen(chordSpec string, act action.Action, ctx Context, priority int, when string) (uuid.UUID, error) {
	chord, err := key.Canonicalize(chordSpec)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidChord, err)
	}
	if ctx == 0 {
		return uuid.Nil, fmt.Errorf("%w: empty context", ErrInvalidContext)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.byChord[chord] {
		if e.Context.Intersects(ctx) {
			r.conflicts.Add(1)
			break
		}
	}

	r.seq++
	entry := &Entry{
		ID:       uuid.New(),
		Chord:    chord,
		Action:   act,
		Context:  ctx,
		Priority: priority,
		When:     when,
		seq:      r.seq,
	}
	r.byChord[chord] = append(r.byChord[chord], entry)
	r.byID[entry.ID] = entry

	recomputeLive(r.byChord[chord])
	r.cache.clear()
	return entry.ID, nil
}

// Remove deletes a binding by id, promoting the next-highest entry for
// its chord and context if the removed one was live.
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)

	entries := r.byChord[entry.Chord]
	for i, e := range entries {
		if e.ID == id {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(r.byChord, entry.Chord)
	} else {
		r.byChord[entry.Chord] = entries
		recomputeLive(entries)
	}

	r.cache.clear()
	return nil
}

// recomputeLive reassigns live status within one chord group: walk in
// precedence order (priority descending, insertion order on ties) and
// mark an entry live unless an already-live entry overlaps its context.
func recomputeLive(entries []*Entry) {
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].seq < sorted[j].seq
	})

	var covered Context
	for _, e := range sorted {
		if e.Context.Intersects(covered) {
			e.live = false
			continue
		}
		e.live = true
		covered |= e.Context
	}
}

// candidate is the snapshot Resolve works on after dropping the lock.
type candidate struct {
	act      action.Action
	when     string
	priority int
	seq      uint64
}

// Resolve returns the action bound to the chord in the active context
// set, if any. chord is the canonical chord string as raw bytes; the
// cached fast path performs no allocation. Entries with conditions are
// evaluated against env and never cached.
func (r *Registry) Resolve(chord []byte, active Context, env CondEnv) (action.Action, bool) {
	if act, negative, ok := r.cache.get(chord, active); ok {
		if negative {
			return action.Action{}, false
		}
		return act, true
	}

	r.mu.RLock()
	entries := r.byChord[string(chord)]
	cands := make([]candidate, 0, len(entries))
	for _, e := range entries {
		if e.live && e.Context.Intersects(active) {
			cands = append(cands, candidate{e.Action, e.When, e.Priority, e.seq})
		}
	}
	r.mu.RUnlock()

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].priority != cands[j].priority {
			return cands[i].priority > cands[j].priority
		}
		return cands[i].seq > cands[j].seq
	})

	cacheable := true
	for _, c := range cands {
		if c.when != "" {
			cacheable = false
			ok, err := r.cond.eval(c.when, env)
			if err != nil || !ok {
				continue
			}
		}
		if cacheable {
			r.cache.put(string(chord), c.act, active, false)
		}
		return c.act, true
	}

	if cacheable {
		r.cache.put(string(chord), action.Action{}, active, true)
	}
	return action.Action{}, false
}

// ListActive enumerates live bindings as (chord, action name) pairs.
// Order is stable across calls without intervening mutation.
func (r *Registry) ListActive() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Binding
	for _, entries := range r.byChord {
		for _, e := range entries {
			if e.live {
				out = append(out, Binding{Chord: e.Chord, Action: e.Action.String()})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Chord != out[j].Chord {
			return out[i].Chord < out[j].Chord
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// ConflictsResolved returns how many Add calls hit an existing binding.
func (r *Registry) ConflictsResolved() uint64 {
	return r.conflicts.Load()
}

// CacheStats returns cumulative lookup-cache hit and miss counts.
func (r *Registry) CacheStats() (hits, misses uint64) {
	return r.cache.stats()
}
