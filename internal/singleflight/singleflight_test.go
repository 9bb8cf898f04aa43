package singleflight

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_CoalescesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	var calls atomic.Int32
	release := make(chan struct{})

	const n = 16
	var wg sync.WaitGroup
	results := make([]int, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			v, _, err := g.Do(context.Background(), "k", func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return g.InFlight() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond) // let followers queue up
	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	assert.LessOrEqual(t, calls.Load(), int32(n))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Equal(t, 0, g.InFlight())
}

func TestGroup_ErrorIsShared(t *testing.T) {
	t.Parallel()

	var g Group[int, string]
	boom := errors.New("boom")
	_, shared, err := g.Do(context.Background(), 1, func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, shared)
}

func TestGroup_FollowerContextCancel(t *testing.T) {
	t.Parallel()

	var g Group[int, int]
	started := make(chan struct{})
	release := make(chan struct{})
	leaderDone := make(chan struct{})

	go func() {
		defer close(leaderDone)
		v, _, err := g.Do(context.Background(), 7, func() (int, error) {
			close(started)
			<-release
			return 7, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 7, v)
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, shared, err := g.Do(ctx, 7, func() (int, error) { return 0, nil })
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, shared)

	close(release)
	<-leaderDone
}

func TestGroup_PanicReleasesFollowers(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	started := make(chan struct{})
	release := make(chan struct{})
	followerErr := make(chan error, 1)

	go func() {
		defer func() { _ = recover() }()
		_, _, _ = g.Do(context.Background(), "p", func() (int, error) {
			close(started)
			<-release
			panic("loader exploded")
		})
	}()
	<-started

	go func() {
		_, _, err := g.Do(context.Background(), "p", func() (int, error) { return 1, nil })
		followerErr <- err
	}()
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		f := g.m["p"]
		return f != nil && f.dups == 1
	}, time.Second, time.Millisecond)
	close(release)

	select {
	case err := <-followerErr:
		require.ErrorIs(t, err, ErrLoaderPanic)
	case <-time.After(2 * time.Second):
		t.Fatal("follower stayed blocked after leader panic")
	}
	assert.Equal(t, 0, g.InFlight())
}
