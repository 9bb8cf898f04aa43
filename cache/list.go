package cache

// recency is an arena-backed doubly linked list bounded by two sentinels.
// head.next is the most recently used entry, tail.prev the least recently used.
//
// Not safe for concurrent use; the owning shard serializes all access.
type recency[K comparable, V any] struct {
	slots []node[K, V]
	free  []int32 // released slots available for reuse
}

func newRecency[K comparable, V any](hint int) recency[K, V] {
	r := recency[K, V]{slots: make([]node[K, V], 2, 2+hint)}
	r.slots[headSlot] = node[K, V]{prev: nilSlot, next: tailSlot}
	r.slots[tailSlot] = node[K, V]{prev: headSlot, next: nilSlot}
	return r
}

// detach unlinks slot i from its neighbors. Its own links are reset and must
// be rewritten by attachFront (or the slot released) before anyone traverses it.
func (r *recency[K, V]) detach(i int32) {
	n := &r.slots[i]
	r.slots[n.prev].next = n.next
	r.slots[n.next].prev = n.prev
	n.prev, n.next = nilSlot, nilSlot
}

// attachFront links slot i directly after head, marking it most recently used.
func (r *recency[K, V]) attachFront(i int32) {
	first := r.slots[headSlot].next
	n := &r.slots[i]
	n.prev = headSlot
	n.next = first
	r.slots[first].prev = i
	r.slots[headSlot].next = i
}

// promote moves a linked slot to the front.
func (r *recency[K, V]) promote(i int32) {
	if r.slots[headSlot].next == i {
		return
	}
	r.detach(i)
	r.attachFront(i)
}

// tailVictim returns the least recently used slot, or false if the list is empty.
func (r *recency[K, V]) tailVictim() (int32, bool) {
	i := r.slots[tailSlot].prev
	return i, i != headSlot
}

// alloc hands out an unlinked slot, reusing released ones first.
// The returned slot's key/value are zero; callers overwrite them in place.
func (r *recency[K, V]) alloc() int32 {
	if n := len(r.free); n > 0 {
		i := r.free[n-1]
		r.free = r.free[:n-1]
		return i
	}
	r.slots = append(r.slots, node[K, V]{prev: nilSlot, next: nilSlot})
	return int32(len(r.slots) - 1)
}

// release zeroes an unlinked slot (dropping references to its key and value)
// and puts it on the free list.
func (r *recency[K, V]) release(i int32) {
	r.slots[i] = node[K, V]{prev: nilSlot, next: nilSlot}
	r.free = append(r.free, i)
}

// walk visits linked slots from MRU to LRU until fn returns false.
func (r *recency[K, V]) walk(fn func(i int32, n *node[K, V]) bool) {
	for i := r.slots[headSlot].next; i != tailSlot; {
		n := &r.slots[i]
		next := n.next
		if !fn(i, n) {
			return
		}
		i = next
	}
}

// reset drops every slot, keeping only fresh sentinels.
func (r *recency[K, V]) reset() {
	*r = newRecency[K, V](0)
}
