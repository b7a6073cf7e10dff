package keymap

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/lcrowe/termagent/internal/input/action"
)

// defaultCacheCapacity bounds the lookup cache.
const defaultCacheCapacity = 256

// cacheRecord is one cached resolution. A record is valid only for the
// exact context mask it was resolved under; mode changes produce a
// different mask and fall through to the registry. negative marks a
// chord known to have no binding, so repeated unbound keys also skip
// the registry scan.
type cacheRecord struct {
	chord    string
	act      action.Action
	mask     Context
	negative bool
}

// lookupCache is a small LRU from chord string to resolved action.
// It is invalidated wholesale on any registry mutation.
type lookupCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newLookupCache(capacity int) *lookupCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &lookupCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// get probes the cache. chord arrives as the engine's reusable byte
// buffer; indexing the map with string(chord) does not allocate.
// The ok result reports a usable record; negative reports a cached
// "no binding" verdict.
func (c *lookupCache) get(chord []byte, mask Context) (act action.Action, negative, ok bool) {
	c.mu.Lock()
	el, found := c.entries[string(chord)]
	if found {
		rec := el.Value.(*cacheRecord)
		if rec.mask == mask {
			c.order.MoveToFront(el)
			c.mu.Unlock()
			c.hits.Add(1)
			return rec.act, rec.negative, true
		}
	}
	c.mu.Unlock()
	c.misses.Add(1)
	return action.Action{}, false, false
}

// put stores a resolution, evicting the least recently used record at
// capacity. Storing replaces any record for the same chord, including
// one resolved under a different mask.
func (c *lookupCache) put(chord string, act action.Action, mask Context, negative bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, found := c.entries[chord]; found {
		rec := el.Value.(*cacheRecord)
		rec.act = act
		rec.mask = mask
		rec.negative = negative
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheRecord).chord)
		}
	}
	c.entries[chord] = c.order.PushFront(&cacheRecord{
		chord:    chord,
		act:      act,
		mask:     mask,
		negative: negative,
	})
}

// clear drops every record. Counters survive; they describe the
// session, not the current cache generation.
func (c *lookupCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.entries)
}

func (c *lookupCache) stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *lookupCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
