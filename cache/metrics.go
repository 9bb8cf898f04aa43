package cache

import "sync"

// NoopMetrics is the default Metrics: it records nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                           {}
func (NoopMetrics) Miss()                          {}
func (NoopMetrics) Evict(EvictReason)              {}
func (NoopMetrics) Size(entries int, charge int64) {}

var _ Metrics = NoopMetrics{}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions uint64 // capacity evictions only; overwrites and erases are not counted
}

// HitRate returns hits/(hits+misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// sizeTracker folds per-shard size changes into cache-wide totals. The update
// and the Metrics.Size call happen under one mutex, so published totals are
// in mutation order and the last one is always current.
type sizeTracker struct {
	mu      sync.Mutex
	entries int
	charge  int64
}

// publish applies one shard's deltas and reports the new totals to m.
// Lock order: shard mutex, then mu.
func (t *sizeTracker) publish(m Metrics, dEntries int, dCharge int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries += dEntries
	t.charge += dCharge
	m.Size(t.entries, t.charge)
}
