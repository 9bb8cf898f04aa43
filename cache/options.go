package cache

import (
	"context"
	"log/slog"
)

// EvictReason explains why an entry left the cache.
type EvictReason int

const (
	// EvictOverwrite: Insert replaced the value of a resident key.
	EvictOverwrite EvictReason = iota
	// EvictCapacity: the LRU entry was dropped to admit a new one.
	EvictCapacity
	// EvictErase: removed by an explicit Erase.
	EvictErase
)

// String returns a stable lower-case label, suitable for metric labels.
func (r EvictReason) String() string {
	switch r {
	case EvictOverwrite:
		return "overwrite"
	case EvictCapacity:
		return "capacity"
	case EvictErase:
		return "erase"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks.
// Calls happen under the shard lock; implementations must be cheap and must
// not call back into the cache.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)

	// Size receives the whole cache's entry count and total charge after
	// every mutation. Calls are serialized across shards, in mutation order.
	Size(entries int, charge int64)
}

// ShardsAuto asks New to size the shard count from GOMAXPROCS.
const ShardsAuto = -1

// Options configures a cache. Zero values are safe; New applies defaults:
//   - Shards 0 or 1 => one shard (strict global LRU)
//   - nil Metrics   => NoopMetrics
//   - nil Logger    => discard
//   - nil Charge    => every loaded value costs 1
type Options[K comparable, V any] struct {
	// Capacity is the maximum total charge. 0 disables caching permanently.
	Capacity int

	// Shards splits the cache into independently locked LRU partitions.
	// Values > 1 are rounded up to a power of two, then down to at most
	// Capacity. The capacity is split so the shard budgets differ by at most
	// one and sum to exactly Capacity. Recency is only exact within a shard.
	Shards int

	// OnEvict is called once for every entry that leaves residency through
	// overwrite (with the old value), capacity eviction or Erase. It is not
	// called for entries dropped by Close.
	//
	// It runs while the shard lock is held: it must not call back into the
	// same cache, and a slow hook stalls every caller of that shard.
	OnEvict func(k K, v V)

	// Charge weighs values loaded by GetOrLoad. Insert takes its charge
	// explicitly and ignores this.
	Charge func(v V) int

	// Loader fetches a value on miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	Metrics Metrics
	Logger  *slog.Logger
}
