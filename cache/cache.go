package cache

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/IvanBrykalov/blockcache/internal/singleflight"
	"github.com/IvanBrykalov/blockcache/internal/util"
)

// cache routes keys to one or more shards and adds read-through loading.
type cache[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64 // nil with a single shard
	closed atomic.Bool

	opt Options[K, V]

	// coalesces concurrent loads in GetOrLoad
	sf singleflight.Group[K, V]
}

// New constructs a cache. It panics if opt.Capacity is negative.
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Capacity < 0 {
		panic("cache: Capacity must be >= 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}

	n := shardCount(opt.Shards, opt.Capacity)
	budgets := util.SplitCapacity(opt.Capacity, n)
	size := &sizeTracker{}
	shards := make([]*shard[K, V], n)
	for i := range shards {
		shards[i] = newShard(budgets[i], opt, size)
	}

	c := &cache[K, V]{shards: shards, opt: opt}
	if n > 1 {
		c.hash = util.Fnv64a[K]
	}
	if opt.Capacity == 0 {
		opt.Logger.Debug("cache: created with zero capacity; caching disabled")
	} else {
		opt.Logger.Debug("cache: created", "capacity", opt.Capacity, "shards", n, "shard_capacity", budgets[0])
	}
	return c
}

// shardCount resolves Options.Shards to a power of two no larger than
// capacity, so that every shard gets a non-zero budget.
func shardCount(requested, capacity int) int {
	n := 1
	switch {
	case requested == ShardsAuto:
		n = util.ReasonableShardCount()
	case requested > 1:
		n = int(util.NextPow2(uint64(requested)))
	}
	if capacity < 1 {
		return 1
	}
	if n > capacity {
		n = int(util.PrevPow2(uint64(capacity)))
	}
	return n
}

// ---- Cache[K,V] implementation ----

func (c *cache[K, V]) Insert(k K, v V, charge int) (V, bool) {
	if charge < 0 {
		charge = 0
	}
	return c.getShard(k).Insert(k, v, charge)
}

func (c *cache[K, V]) Get(k K) (V, bool) {
	return c.getShard(k).Get(k)
}

func (c *cache[K, V]) Erase(k K) {
	c.getShard(k).Erase(k)
}

func (c *cache[K, V]) TotalCharge() int {
	total := 0
	for _, s := range c.shards {
		total += s.TotalCharge()
	}
	return total
}

func (c *cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

// Capacity returns Options.Capacity; the shard budgets sum to exactly this.
func (c *cache[K, V]) Capacity() int {
	return c.opt.Capacity
}

func (c *cache[K, V]) Keys() []K {
	var keys []K
	for _, s := range c.shards {
		keys = s.Keys(keys)
	}
	return keys
}

func (c *cache[K, V]) Stats() Stats {
	var st Stats
	for _, s := range c.shards {
		ss := s.stats()
		st.Hits += ss.Hits
		st.Misses += ss.Misses
		st.Evictions += ss.Evictions
	}
	return st
}

// Close is idempotent.
func (c *cache[K, V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, s := range c.shards {
		s.Close()
	}
	c.opt.Logger.Debug("cache: closed")
	return nil
}

func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}
	s := c.getShard(k)
	if v, ok := s.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		return zero, ErrNoLoader
	}

	v, _, err := c.sf.Do(ctx, k, func() (V, error) {
		// Another flight may have filled k between our miss and becoming leader.
		if v, ok := s.get(k, false); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, k)
		if err != nil {
			return v, errors.Wrapf(err, "cache: load %v", k)
		}
		c.Insert(k, v, c.chargeOf(v))
		return v, nil
	})
	return v, err
}

// ---- helpers ----

func (c *cache[K, V]) getShard(k K) *shard[K, V] {
	if c.hash == nil {
		return c.shards[0]
	}
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}

// chargeOf weighs a loaded value; negative results clamp to 0.
func (c *cache[K, V]) chargeOf(v V) int {
	if c.opt.Charge == nil {
		return 1
	}
	return max(c.opt.Charge(v), 0)
}
