package cache

import "github.com/pkg/errors"

var (
	// ErrNoLoader is returned by GetOrLoad when Options.Loader is nil.
	ErrNoLoader = errors.New("cache: no Loader provided")

	// ErrClosed is returned by GetOrLoad after Close.
	ErrClosed = errors.New("cache: closed")

	// ErrPoisoned is the panic value of every operation on a shard whose
	// lock was held by a panicking call (usually a panicking OnEvict hook).
	// The recency list may be half-linked at that point, so the shard refuses
	// to touch it again.
	ErrPoisoned = errors.New("cache: shard poisoned by a panic in a previous operation")
)
