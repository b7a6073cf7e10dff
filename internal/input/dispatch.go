package input

import (
	"context"
	"sync/atomic"

	"github.com/lcrowe/termagent/internal/input/action"
)

// DefaultDispatchCapacity bounds the action channel.
const DefaultDispatchCapacity = 1024

// Dispatcher is the bounded FIFO action queue between the engine and
// the host loop. The engine only pushes; the host only pops. Push never
// blocks: when the host falls behind, actions are dropped and counted
// rather than allowed to stall the input thread.
type Dispatcher struct {
	ch      chan action.Action
	dropped atomic.Uint64
}

// NewDispatcher returns a dispatcher with the given capacity.
// Non-positive capacities select the default.
func NewDispatcher(capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = DefaultDispatchCapacity
	}
	return &Dispatcher{ch: make(chan action.Action, capacity)}
}

// Push enqueues an action, reporting false if the queue was full and
// the action was dropped.
func (d *Dispatcher) Push(act action.Action) bool {
	select {
	case d.ch <- act:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// TryPop dequeues the next action without blocking.
func (d *Dispatcher) TryPop() (action.Action, bool) {
	select {
	case act := <-d.ch:
		return act, true
	default:
		return action.Action{}, false
	}
}

// Pop dequeues the next action, blocking until one arrives or ctx is
// done.
func (d *Dispatcher) Pop(ctx context.Context) (action.Action, error) {
	select {
	case act := <-d.ch:
		return act, nil
	case <-ctx.Done():
		return action.Action{}, ctx.Err()
	}
}

// Len returns the number of queued actions.
func (d *Dispatcher) Len() int { return len(d.ch) }

// Dropped returns how many actions were discarded on a full queue.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }
