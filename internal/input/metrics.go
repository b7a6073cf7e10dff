package input

import (
	"sync/atomic"
	"time"
)

// emaWeight is the divisor of the exponential moving average applied to
// per-event processing time: avg += (sample - avg) / 32.
const emaWeight = 32

// metrics holds the hot-path counters. Events arrive from a single
// producer; atomics make the Stats snapshot safe to take from another
// goroutine without a lock.
type metrics struct {
	totalKeys         atomic.Uint64
	prefixActivations atomic.Uint64
	avgProcessingNs   atomic.Uint64
}

// recordEvent folds one event's processing time into the counters.
func (m *metrics) recordEvent(elapsed time.Duration) {
	m.totalKeys.Add(1)

	sample := uint64(elapsed.Nanoseconds())
	avg := m.avgProcessingNs.Load()
	if avg == 0 {
		m.avgProcessingNs.Store(sample)
		return
	}
	if sample >= avg {
		m.avgProcessingNs.Store(avg + (sample-avg)/emaWeight)
	} else {
		m.avgProcessingNs.Store(avg - (avg-sample)/emaWeight)
	}
}

// Stats is an immutable snapshot of engine counters.
type Stats struct {
	TotalKeysProcessed  uint64
	AvgProcessingTimeNs uint64
	CacheHits           uint64
	CacheMisses         uint64
	PrefixActivations   uint64
	ConflictsResolved   uint64
	DroppedActions      uint64
}
