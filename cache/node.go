package cache

// Arena slot handles. Slots 0 and 1 are the permanent head/tail sentinels;
// user entries start at slot 2.
const (
	headSlot int32 = 0
	tailSlot int32 = 1
	nilSlot  int32 = -1
)

// node is one arena slot: a resident entry plus its recency links.
// Links are slot handles into the owning arena, never pointers, so a slot can
// be overwritten in place when it is recycled for a new key.
type node[K comparable, V any] struct {
	key K
	val V

	// charge is the weight most recently supplied for this key.
	charge int

	// Intrusive list links: head side is MRU, tail side is LRU.
	prev int32
	next int32
}
