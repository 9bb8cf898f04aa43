// Package util holds the cache's internal helpers: key hashing, shard
// routing and sizing, and cache-line padding for hot counters.
//revive:disable:var-naming
package util

import (
	"sync/atomic"
	"unsafe"
)

// CacheLineSize assumes 64-byte lines (amd64, most arm64).
const CacheLineSize = 64

// CacheLinePad keeps the lock-guarded fields of a shard off the line its
// counters live on.
type CacheLinePad struct{ _ [CacheLineSize]byte }

// PaddedAtomicInt64 gives a hit or miss counter a cache line to itself.
type PaddedAtomicInt64 struct {
	atomic.Int64
	_ [CacheLineSize - unsafe.Sizeof(atomic.Int64{})]byte
}

// PaddedAtomicUint64 gives the eviction counter a cache line to itself.
type PaddedAtomicUint64 struct {
	atomic.Uint64
	_ [CacheLineSize - unsafe.Sizeof(atomic.Uint64{})]byte
}

// Fails to compile if either counter stops filling exactly one line.
var (
	_ [CacheLineSize - unsafe.Sizeof(PaddedAtomicInt64{})]byte
	_ [unsafe.Sizeof(PaddedAtomicInt64{}) - CacheLineSize]byte
	_ [CacheLineSize - unsafe.Sizeof(PaddedAtomicUint64{})]byte
	_ [unsafe.Sizeof(PaddedAtomicUint64{}) - CacheLineSize]byte
)
