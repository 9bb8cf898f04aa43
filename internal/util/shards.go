package util

import "runtime"

// MaxShards bounds the automatic shard count.
const MaxShards = 256

// ReasonableShardCount picks a default shard count from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..MaxShards].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n > MaxShards {
		n = MaxShards
	}
	return n
}

// ShardIndex maps a 64-bit hash to a shard index.
// Power-of-two shard counts take the mask path; other counts fall back to modulo.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}

// SplitCapacity divides total into shards budgets that sum to exactly total:
// every shard gets total/shards and the first total%shards get one more.
// Callers keep shards <= total so that no budget is 0.
func SplitCapacity(total, shards int) []int {
	if shards < 1 {
		shards = 1
	}
	budgets := make([]int, shards)
	if total <= 0 {
		return budgets
	}
	base, extra := total/shards, total%shards
	for i := range budgets {
		budgets[i] = base
		if i < extra {
			budgets[i]++
		}
	}
	return budgets
}
