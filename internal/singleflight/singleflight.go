// Package singleflight coalesces concurrent loads of the same cache key.
package singleflight

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// ErrLoaderPanic is returned to every caller of a flight whose fn panicked.
// The leader re-panics after publishing it; followers only see the error.
var ErrLoaderPanic = errors.New("singleflight: load panicked")

// Group runs at most one fn per key at a time. Callers arriving while a flight
// for their key is in progress wait for its result instead of starting their own.
//
// Publishing (val, err) happens-before close(done), so followers that return
// from <-done observe the final values. A follower's ctx only bounds its own
// wait; the leader's fn keeps running.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*flight[V]
}

type flight[V any] struct {
	done chan struct{}
	val  V
	err  error
	dups int
}

// Do runs fn once for key and returns its result to every concurrent caller.
// shared reports whether the result was handed to more than one caller.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*flight[V])
	}
	if f, ok := g.m[key]; ok {
		f.dups++
		g.mu.Unlock()

		select {
		case <-f.done:
			return f.val, true, f.err
		case <-ctx.Done():
			var zero V
			return zero, true, ctx.Err()
		}
	}

	f := &flight[V]{done: make(chan struct{})}
	g.m[key] = f
	g.mu.Unlock()

	g.run(key, f, fn)

	g.mu.Lock()
	shared = f.dups > 0
	g.mu.Unlock()
	return f.val, shared, f.err
}

// InFlight reports how many keys currently have a leader running.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

// run executes fn and always releases followers, even if fn panics.
func (g *Group[K, V]) run(key K, f *flight[V], fn func() (V, error)) {
	normal := false
	defer func() {
		if !normal {
			if r := recover(); r != nil {
				f.err = errors.Wrap(ErrLoaderPanic, fmt.Sprint(r))
				g.finish(key, f)
				panic(r)
			}
			// runtime.Goexit inside fn (e.g. t.FailNow in a test loader).
			f.err = errors.WithMessage(ErrLoaderPanic, "goexit")
		}
		g.finish(key, f)
	}()

	f.val, f.err = fn()
	normal = true
}

func (g *Group[K, V]) finish(key K, f *flight[V]) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
	close(f.done)
}
