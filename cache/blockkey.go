package cache

import (
	"encoding/binary"
	"strconv"

	"github.com/IvanBrykalov/blockcache/internal/util"
)

// BlockKeyLen is the size of an encoded BlockKey.
const BlockKeyLen = 16

// BlockKey identifies a decoded block of a table file: the file number and
// the block's byte offset within it.
type BlockKey struct {
	FileNumber  uint64
	BlockOffset uint64
}

// Hash64 routes block keys to shards without fmt or allocation.
func (k BlockKey) Hash64() uint64 { return util.Mix64(k.FileNumber, k.BlockOffset) }

// AppendBinary appends the big-endian file_number || block_offset encoding.
func (k BlockKey) AppendBinary(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint64(dst, k.FileNumber)
	return binary.BigEndian.AppendUint64(dst, k.BlockOffset)
}

// Bytes returns the 16-byte encoding of k.
func (k BlockKey) Bytes() []byte { return k.AppendBinary(make([]byte, 0, BlockKeyLen)) }

// ParseBlockKey decodes the output of Bytes.
func ParseBlockKey(b []byte) (BlockKey, bool) {
	if len(b) != BlockKeyLen {
		return BlockKey{}, false
	}
	return BlockKey{
		FileNumber:  binary.BigEndian.Uint64(b[:8]),
		BlockOffset: binary.BigEndian.Uint64(b[8:]),
	}, true
}

func (k BlockKey) String() string {
	return strconv.FormatUint(k.FileNumber, 10) + "@" + strconv.FormatUint(k.BlockOffset, 10)
}

// NewBlockCache builds a cache of raw block contents keyed by BlockKey.
// Unless opt.Charge is set, a loaded block is charged its length in bytes,
// so opt.Capacity is a byte budget. Cached slices must be treated as read-only.
func NewBlockCache(opt Options[BlockKey, []byte]) Cache[BlockKey, []byte] {
	if opt.Charge == nil {
		opt.Charge = func(b []byte) int { return len(b) }
	}
	return New(opt)
}
