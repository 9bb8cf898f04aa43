package cache

import "context"

// Cache is a capacity-bounded, charge-weighted LRU cache.
// All methods are safe for concurrent use by multiple goroutines; the value
// returned by New is a handle, and every copy of it shares the same state.
//
// Insert, Get and Erase are O(1) apart from evictions, which cost O(1) each.
type Cache[K comparable, V any] interface {
	// Insert stores k→v with the given charge and makes it most recently used.
	//
	// If k was absent, least recently used entries are evicted until the
	// charge fits and Insert returns (zero, false). A charge larger than the
	// capacity is never admitted and evicts nothing.
	//
	// If k was resident, its value and charge are replaced in place, OnEvict
	// sees the displaced value, and Insert returns (old, true). An overwrite
	// is not free of side effects:
	//   - if the new charge is larger, other least recently used entries are
	//     evicted until usage fits the capacity again;
	//   - if the new charge exceeds the capacity, k is removed instead and is
	//     absent afterwards, although Insert still returns (old, true).
	//
	// Negative charges count as 0.
	Insert(k K, v V, charge int) (old V, replaced bool)

	// Get returns the value for k and makes it most recently used.
	Get(k K) (V, bool)

	// Erase removes k. Absent keys are a no-op and do not reach OnEvict.
	Erase(k K)

	// TotalCharge returns the sum of charges of resident entries.
	TotalCharge() int

	// GetOrLoad returns the value for k, loading and inserting it via
	// Options.Loader on a miss. Concurrent loads of one key are coalesced.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// Len returns the number of resident entries.
	Len() int

	// Capacity returns the effective capacity (sum of shard budgets).
	Capacity() int

	// Keys returns resident keys, MRU first within each shard.
	Keys() []K

	// Stats returns hit/miss/eviction counters.
	Stats() Stats

	// Close drops all resident entries without calling OnEvict. Afterwards
	// Insert and Erase are no-ops, Get misses and GetOrLoad returns ErrClosed.
	Close() error
}
