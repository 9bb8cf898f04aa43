package cache

import (
	"log/slog"
	"sync"

	"github.com/IvanBrykalov/blockcache/internal/util"
)

// shard is one LRU partition: an arena recency list, a key index into it and
// the usage counter, all guarded by a single mutex. Every exported-path method
// holds mu for its whole body, so operations on a shard are linearizable.
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu       sync.Mutex
	list     recency[K, V]
	index    map[K]int32
	usage    int // sum of charge over resident entries
	capacity int
	poisoned bool
	closed   bool

	onEvict func(K, V)
	metrics Metrics
	size    *sizeTracker
	log     *slog.Logger

	// last values folded into size
	reportedEntries int
	reportedUsage   int

	// ---- hot counters, readable without mu ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// indexHint caps the initial map/arena reservation; capacity is in charge
// units (often bytes), not entries.
const indexHint = 1024

func newShard[K comparable, V any](capacity int, opt Options[K, V], size *sizeTracker) *shard[K, V] {
	hint := min(capacity, indexHint)
	return &shard[K, V]{
		list:     newRecency[K, V](hint),
		index:    make(map[K]int32, hint),
		capacity: capacity,
		onEvict:  opt.OnEvict,
		metrics:  opt.Metrics,
		size:     size,
		log:      opt.Logger,
	}
}

// lock acquires mu and fails loudly if an earlier critical section panicked.
func (s *shard[K, V]) lock() {
	s.mu.Lock()
	if s.poisoned {
		s.mu.Unlock()
		panic(ErrPoisoned)
	}
}

// unlock must be deferred directly (defer s.unlock()) so that recover sees a
// panic raised inside the critical section. Such a panic poisons the shard.
func (s *shard[K, V]) unlock() {
	if r := recover(); r != nil {
		s.poisoned = true
		s.log.Error("cache: panic while holding shard lock; shard poisoned", "panic", r)
		s.mu.Unlock()
		panic(r)
	}
	s.mu.Unlock()
}

// Insert stores k→v with the given charge and promotes it to MRU.
// For a resident key it returns the displaced value and true.
func (s *shard[K, V]) Insert(k K, v V, charge int) (old V, replaced bool) {
	s.lock()
	defer s.unlock()

	if s.closed || s.capacity == 0 {
		return old, false
	}

	if i, ok := s.index[k]; ok {
		n := &s.list.slots[i]
		old = n.val
		if charge > s.capacity {
			// The new value can never be resident; drop the stale one.
			s.unlinkLocked(i)
			s.displaced(k, old, EvictOverwrite)
			s.reportSize()
			return old, true
		}
		n.val = v
		s.usage += charge - n.charge
		n.charge = charge
		s.list.promote(i)
		s.displaced(k, old, EvictOverwrite)
		// Only a grown charge can push usage over; i is MRU so it is never the victim.
		s.trimLocked()
		s.reportSize()
		return old, true
	}

	if charge > s.capacity {
		return old, false
	}

	// Admission: evict from the tail until the new charge fits. The first
	// victim's slot is recycled for the new entry.
	slot := nilSlot
	for s.usage+charge > s.capacity {
		victim, ok := s.list.tailVictim()
		if !ok {
			break
		}
		s.evictLocked(victim)
		if slot == nilSlot {
			slot = victim
		} else {
			s.list.release(victim)
		}
	}
	if slot == nilSlot {
		slot = s.list.alloc()
	}

	s.list.slots[slot] = node[K, V]{key: k, val: v, charge: charge, prev: nilSlot, next: nilSlot}
	s.list.attachFront(slot)
	s.index[k] = slot
	s.usage += charge
	s.reportSize()
	return old, false
}

// Get returns the value for k and promotes it to MRU.
func (s *shard[K, V]) Get(k K) (V, bool) {
	return s.get(k, true)
}

// get looks k up and promotes it; record=false skips hit/miss accounting
// (used for the GetOrLoad re-check).
func (s *shard[K, V]) get(k K, record bool) (V, bool) {
	s.lock()
	defer s.unlock()

	i, ok := s.index[k]
	if !ok || s.closed {
		if record {
			s.misses.Add(1)
			s.metrics.Miss()
		}
		var zero V
		return zero, false
	}
	s.list.promote(i)
	if record {
		s.hits.Add(1)
		s.metrics.Hit()
	}
	return s.list.slots[i].val, true
}

// Erase removes k if resident and reports it to OnEvict. Absent keys are a no-op.
func (s *shard[K, V]) Erase(k K) {
	s.lock()
	defer s.unlock()

	i, ok := s.index[k]
	if !ok {
		return
	}
	v := s.list.slots[i].val
	s.unlinkLocked(i)
	s.displaced(k, v, EvictErase)
	s.reportSize()
}

// TotalCharge returns the current usage.
func (s *shard[K, V]) TotalCharge() int {
	s.lock()
	defer s.unlock()
	return s.usage
}

// Len returns the number of resident entries.
func (s *shard[K, V]) Len() int {
	s.lock()
	defer s.unlock()
	return len(s.index)
}

// Keys appends resident keys to dst in MRU→LRU order.
func (s *shard[K, V]) Keys(dst []K) []K {
	s.lock()
	defer s.unlock()
	s.list.walk(func(_ int32, n *node[K, V]) bool {
		dst = append(dst, n.key)
		return true
	})
	return dst
}

// Close drops every resident entry without calling OnEvict. Later calls see
// an empty shard. It also works on a poisoned shard since it never walks the list.
func (s *shard[K, V]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.index = make(map[K]int32)
	s.list.reset()
	s.usage = 0
	s.reportSize()
}

func (s *shard[K, V]) stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evicts.Load(),
	}
}

// -------------------- internals (mu held) --------------------

// unlinkLocked removes slot i from the list and index, subtracts its charge
// and releases the slot. The caller reports the departure.
func (s *shard[K, V]) unlinkLocked(i int32) {
	n := &s.list.slots[i]
	s.list.detach(i)
	delete(s.index, n.key)
	s.usage -= n.charge
	s.list.release(i)
}

// evictLocked removes the LRU slot i for capacity reasons but leaves the slot
// allocated so the caller can recycle or release it.
func (s *shard[K, V]) evictLocked(i int32) {
	n := &s.list.slots[i]
	k, v := n.key, n.val
	s.list.detach(i)
	delete(s.index, k)
	s.usage -= n.charge
	s.evicts.Add(1)
	s.displaced(k, v, EvictCapacity)
}

// trimLocked evicts from the tail until usage fits the capacity.
func (s *shard[K, V]) trimLocked() {
	for s.usage > s.capacity {
		victim, ok := s.list.tailVictim()
		if !ok {
			return
		}
		s.evictLocked(victim)
		s.list.release(victim)
	}
}

func (s *shard[K, V]) displaced(k K, v V, reason EvictReason) {
	s.metrics.Evict(reason)
	if s.onEvict != nil {
		s.onEvict(k, v)
	}
}

func (s *shard[K, V]) reportSize() {
	n := len(s.index)
	s.size.publish(s.metrics, n-s.reportedEntries, int64(s.usage-s.reportedUsage))
	s.reportedEntries, s.reportedUsage = n, s.usage
}
