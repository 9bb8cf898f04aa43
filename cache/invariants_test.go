package cache

import "github.com/pkg/errors"

// checkInvariants verifies the list/index/usage agreement. O(n).
func (s *shard[K, V]) checkInvariants() error {
	s.lock()
	defer s.unlock()

	linked, sum := 0, 0
	var err error
	s.list.walk(func(i int32, n *node[K, V]) bool {
		linked++
		sum += n.charge
		if j, ok := s.index[n.key]; !ok || j != i {
			err = errors.Errorf("key %v at slot %d not indexed there (index=%d, ok=%v)", n.key, i, j, ok)
			return false
		}
		if s.list.slots[n.prev].next != i || s.list.slots[n.next].prev != i {
			err = errors.Errorf("slot %d has broken neighbor links", i)
			return false
		}
		return true
	})
	switch {
	case err != nil:
		return err
	case linked != len(s.index):
		return errors.Errorf("list length %d != index size %d", linked, len(s.index))
	case sum != s.usage:
		return errors.Errorf("usage %d != sum of charges %d", s.usage, sum)
	case s.capacity > 0 && s.usage > s.capacity:
		return errors.Errorf("usage %d exceeds capacity %d", s.usage, s.capacity)
	case s.capacity == 0 && linked != 0:
		return errors.Errorf("zero-capacity shard holds %d entries", linked)
	}
	return nil
}
