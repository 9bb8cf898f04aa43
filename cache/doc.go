// Package cache provides the block cache of a LevelDB-style storage engine: a
// generic, charge-weighted, strictly LRU cache shared by every reader and
// writer of a database.
//
// Design
//
//   - Storage: entries live in an arena (a slice of nodes). The recency list
//     links arena slots by integer handle between two permanent sentinels;
//     head side is MRU, tail side is LRU. A map[K]int32 indexes the slots.
//     When admission evicts the LRU entry, its slot is overwritten in place
//     for the new key instead of being freed and reallocated.
//
//   - Capacity: every entry carries a caller-chosen charge (bytes, 1 per item,
//     ...). An insert evicts LRU entries until usage+charge fits the capacity,
//     so TotalCharge never exceeds Capacity. Capacity 0 disables caching.
//
//   - Concurrency: a shard's list, index and usage counter are guarded by one
//     mutex held for the whole of each operation, which makes the shard
//     linearizable and "least recently used" well defined at every instant.
//     The default is a single shard; Options.Shards trades exact global LRU
//     order for less contention.
//
//   - OnEvict: called synchronously, under the lock, for every overwrite
//     (with the old value), capacity eviction and Erase; never for entries
//     dropped by Close. It must not call back into the same cache.
//
//   - Failure: a panic inside a critical section (typically from OnEvict)
//     poisons the shard. Every later operation on it panics with ErrPoisoned
//     rather than walk a possibly half-linked list.
//
// Basic usage
//
//	c := cache.New[cache.BlockKey, []byte](cache.Options[cache.BlockKey, []byte]{
//	    Capacity: 8 << 20, // bytes
//	})
//	k := cache.BlockKey{FileNumber: 7, BlockOffset: 4096}
//	if b, ok := c.Get(k); ok {
//	    _ = b
//	}
//	c.Insert(k, block, len(block))
//
// Read-through
//
//	c := cache.NewBlockCache(cache.Options[cache.BlockKey, []byte]{
//	    Capacity: 8 << 20,
//	    Loader: func(ctx context.Context, k cache.BlockKey) ([]byte, error) {
//	        return table.ReadBlock(ctx, k.FileNumber, k.BlockOffset)
//	    },
//	})
//	b, err := c.GetOrLoad(ctx, k)
//
// Exporting metrics
//
//	m := prom.New(nil, "db", "block_cache", nil) // implements cache.Metrics
//	c := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 1 << 20, Metrics: m})
package cache
