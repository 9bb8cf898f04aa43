package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockKey_Encoding(t *testing.T) {
	t.Parallel()

	k := BlockKey{FileNumber: 0x0102030405060708, BlockOffset: 4096}
	b := k.Bytes()
	require.Len(t, b, BlockKeyLen)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b[:8])

	got, ok := ParseBlockKey(b)
	require.True(t, ok)
	assert.Equal(t, k, got)

	_, ok = ParseBlockKey(b[:15])
	assert.False(t, ok)

	assert.Equal(t, "72623859790382856@4096", k.String())
	assert.NotEqual(t, k.Hash64(), BlockKey{FileNumber: 4096, BlockOffset: k.FileNumber}.Hash64())
}

func TestBlockCache_ChargesBytesAndShards(t *testing.T) {
	t.Parallel()

	c := NewBlockCache(Options[BlockKey, []byte]{Capacity: 64 << 10, Shards: 4})
	t.Cleanup(func() { _ = c.Close() })

	block := make([]byte, 1024)
	for off := uint64(0); off < 256; off++ {
		c.Insert(BlockKey{FileNumber: 1, BlockOffset: off * 1024}, block, len(block))
	}
	assert.LessOrEqual(t, c.TotalCharge(), c.Capacity())
	assert.Equal(t, c.Len()*1024, c.TotalCharge())
	requireInvariants(t, c)
}
