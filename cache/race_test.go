package cache

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Writers fill disjoint key ranges, then readers check their own ranges: every
// key that survived must hold exactly the value its writer stored.
func TestRace_DisjointWritersThenReaders(t *testing.T) {
	const (
		threads   = 4
		perThread = 25_000
		capacity  = 60_000
	)
	var evicted atomic.Int64
	c := New[string, string](Options[string, string]{
		Capacity: capacity,
		OnEvict:  func(string, string) { evicted.Add(1) },
	})
	t.Cleanup(func() { _ = c.Close() })

	key := func(n int) string { return fmt.Sprintf("key %d", n) }
	val := func(n int) string { return fmt.Sprintf("value %d", n) }

	var g errgroup.Group
	for i := 0; i < threads; i++ {
		lo, hi := i*perThread, (i+1)*perThread
		g.Go(func() error {
			for n := lo; n < hi; n++ {
				c.Insert(key(n), val(n), 1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, capacity, c.TotalCharge())
	assert.Equal(t, int64(threads*perThread-capacity), evicted.Load())
	requireInvariants(t, c)

	var found atomic.Int64
	for i := 0; i < threads; i++ {
		lo, hi := i*perThread, (i+1)*perThread
		g.Go(func() error {
			for n := lo; n < hi; n++ {
				v, ok := c.Get(key(n))
				if !ok {
					continue
				}
				found.Add(1)
				if v != val(n) {
					return fmt.Errorf("key %d: got %q", n, v)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	// Reads promote but never evict, so every resident key is found exactly once.
	assert.Equal(t, int64(capacity), found.Load())
}

// A mixed workload of concurrent Insert/Get/Erase on random keys.
// Should pass under `-race`, and the shard invariants must hold afterwards.
func TestRace_MixedWorkload(t *testing.T) {
	for _, shards := range []int{1, 8} {
		t.Run(fmt.Sprintf("shards=%d", shards), func(t *testing.T) {
			c := New[int, []byte](Options[int, []byte]{
				Capacity: 4_096,
				Shards:   shards,
				OnEvict:  func(int, []byte) {},
			})
			t.Cleanup(func() { _ = c.Close() })

			workers := 4 * runtime.GOMAXPROCS(0)
			keyspace := 20_000
			deadline := time.Now().Add(500 * time.Millisecond)

			var wg sync.WaitGroup
			wg.Add(workers)
			for w := 0; w < workers; w++ {
				go func(id int) {
					defer wg.Done()
					r := rand.New(rand.NewSource(int64(id) * 9973))
					for time.Now().Before(deadline) {
						k := r.Intn(keyspace)
						switch n := r.Intn(100); {
						case n < 5:
							c.Erase(k)
						case n < 25:
							c.Insert(k, []byte("x"), 1+r.Intn(16))
						default:
							c.Get(k)
						}
					}
				}(w)
			}
			wg.Wait()

			assert.LessOrEqual(t, c.TotalCharge(), c.Capacity())
			requireInvariants(t, c)
		})
	}
}

// One hundred goroutines call GetOrLoad on the same key concurrently.
// The Loader should run at most once.
func TestRace_GetOrLoad(t *testing.T) {
	var calls atomic.Int64

	c := NewBlockCache(Options[BlockKey, []byte]{
		Capacity: 1 << 20,
		Loader: func(_ context.Context, k BlockKey) ([]byte, error) {
			calls.Add(1)
			time.Sleep(2 * time.Millisecond) // simulate I/O
			return k.Bytes(), nil
		},
	})
	t.Cleanup(func() { _ = c.Close() })

	const goroutines = 100
	key := BlockKey{FileNumber: 3, BlockOffset: 8192}

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			<-start
			b, err := c.GetOrLoad(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			got, ok := ParseBlockKey(b)
			assert.True(t, ok)
			assert.Equal(t, key, got)
		}()
	}
	close(start)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int64(1))
	assert.Equal(t, BlockKeyLen, c.TotalCharge(), "block charged by length")
}
