// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"fmt"
)

// Hasher is implemented by composite keys (e.g. block keys) that know how to
// hash themselves without going through fmt.
type Hasher interface{ Hash64() uint64 }

// Fnv64a hashes common key types using 64-bit FNV-1a.
// Supported: Hasher, string, []byte, [16|32|64]byte, all int/uint widths,
// uintptr, fmt.Stringer. Unsupported key types panic; use a single shard or
// implement Hasher for them.
func Fnv64a[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case Hasher:
		return v.Hash64()
	case string:
		return fnv64aFromBytes([]byte(v))
	case []byte:
		return fnv64aFromBytes(v)
	case [16]byte:
		return fnv64aFromBytes(v[:])
	case [32]byte:
		return fnv64aFromBytes(v[:])
	case [64]byte:
		return fnv64aFromBytes(v[:])

	// Integer-like keys: hash little-endian bytes of the value.
	case uint8:
		return fnv64aFromUint64(uint64(v))
	case uint16:
		return fnv64aFromUint64(uint64(v))
	case uint32:
		return fnv64aFromUint64(uint64(v))
	case uint64:
		return fnv64aFromUint64(v)
	case uint:
		return fnv64aFromUint64(uint64(v))
	case uintptr:
		return fnv64aFromUint64(uint64(v))
	case int8:
		return fnv64aFromUint64(uint64(uint8(v)))
	case int16:
		return fnv64aFromUint64(uint64(uint16(v)))
	case int32:
		return fnv64aFromUint64(uint64(uint32(v)))
	case int64:
		return fnv64aFromUint64(uint64(v))
	case int:
		return fnv64aFromUint64(uint64(v))

	// Slow path: String() allocates.
	case fmt.Stringer:
		return fnv64aFromBytes([]byte(v.String()))
	default:
		panic(fmt.Sprintf("util.Fnv64a: unsupported key type %T; implement Hash64 or use one shard", k))
	}
}

// Mix64 folds two 64-bit words into one FNV-1a hash (16 little-endian bytes).
func Mix64(a, b uint64) uint64 {
	h := uint64(fnvOffset64)
	for _, u := range [2]uint64{a, b} {
		for i := 0; i < 8; i++ {
			h ^= uint64(byte(u))
			h *= fnvPrime64
			u >>= 8
		}
	}
	return h
}

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

func fnv64aFromBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

// fnv64aFromUint64 hashes the 8 little-endian bytes of u without allocating.
func fnv64aFromUint64(u uint64) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(u))
		h *= fnvPrime64
		u >>= 8
	}
	return h
}
