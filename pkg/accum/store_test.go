package accum

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/util"
)

func fillByte(b byte) func(*Chunk) {
	return func(c *Chunk) {
		for i := range c.Values {
			c.Values[i] = b
		}
		clear(c.Validity)
	}
}

func Test_storeConfig(t *testing.T) {
	alloc := util.NewBoundedAllocator("t", 0)
	for _, capa := range []int{0, 32, 63, 100, 1000} {
		_, err := NewStore(StoreConfig{ChunkCapacity: capa, PTyp: common.INT64}, alloc, fillByte(0))
		assert.Error(t, err, "capacity %d", capa)
	}
	_, err := NewStore(StoreConfig{ChunkCapacity: 64, PTyp: common.INT128}, alloc, fillByte(0))
	assert.Error(t, err)

	store, err := NewStore(StoreConfig{ChunkCapacity: 64, PTyp: common.INT64}, alloc, fillByte(0))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Capacity())
	assert.Equal(t, 64, store.ChunkCapacity())
}

func Test_storeAddressing(t *testing.T) {
	store, err := NewStore(StoreConfig{ChunkCapacity: 64, PTyp: common.INT32},
		util.NewBoundedAllocator("t", 0), fillByte(0))
	require.NoError(t, err)
	require.NoError(t, store.EnsureCapacity(130))
	assert.Equal(t, 3, store.ChunkCount())
	assert.Equal(t, 192, store.Capacity())

	ci, off := store.AddressFor(130)
	assert.Equal(t, 2, ci)
	assert.Equal(t, 2, off)
	ci, off = store.AddressFor(63)
	assert.Equal(t, 0, ci)
	assert.Equal(t, 63, off)

	c := store.Chunk(0)
	assert.Len(t, c.Values, 64*4)
	assert.Len(t, c.Validity, 8)
	assert.Equal(t, 3*(64*4+8), store.Allocated())
}

func Test_storeGrowthKeepsChunks(t *testing.T) {
	store, err := NewStore(StoreConfig{ChunkCapacity: 64, PTyp: common.INT64},
		util.NewBoundedAllocator("t", 0), fillByte(0xAB))
	require.NoError(t, err)
	require.NoError(t, store.EnsureCapacity(0))
	first := store.Chunk(0)
	ptr := first.ValuesPtr()
	first.Values[8] = 7

	require.NoError(t, store.EnsureCapacity(64*40))
	assert.Equal(t, 41, store.ChunkCount())
	assert.Same(t, first, store.Chunk(0))
	assert.Equal(t, ptr, store.Chunk(0).ValuesPtr())
	assert.Equal(t, byte(7), store.Chunk(0).Values[8])
	assert.Equal(t, byte(0xAB), store.Chunk(40).Values[8])

	// already addressable
	require.NoError(t, store.EnsureCapacity(5))
	assert.Equal(t, 41, store.ChunkCount())
}

func Test_storeOutOfMemory(t *testing.T) {
	alloc := util.NewBoundedAllocator("t", 2*(64*8+8))
	store, err := NewStore(StoreConfig{ChunkCapacity: 64, PTyp: common.INT64}, alloc, fillByte(0))
	require.NoError(t, err)
	require.NoError(t, store.EnsureCapacity(127))
	err = store.EnsureCapacity(128)
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrOutOfMemory))
	assert.Equal(t, 2, store.ChunkCount())
	assert.Equal(t, int64(2*(64*8+8)), alloc.Allocated())

	store.Release()
	assert.Equal(t, 0, store.ChunkCount())
	assert.Equal(t, int64(0), alloc.Allocated())
}

func Test_storeAllocFault(t *testing.T) {
	util.Open(util.FAULTS_SCOPE_ALLOC)
	defer util.Close(util.FAULTS_SCOPE_ALLOC)
	util.Register(util.FAULTS_SCOPE_ALLOC, util.FaultAllocFail, nil,
		util.FailAfter(3, util.ErrOutOfMemory))

	alloc := util.NewBoundedAllocator("t", 0)
	store, err := NewStore(StoreConfig{ChunkCapacity: 64, PTyp: common.DOUBLE}, alloc, fillByte(0))
	require.NoError(t, err)
	require.NoError(t, store.EnsureCapacity(10))
	// values of the second chunk pass, its validity fails
	err = store.EnsureCapacity(100)
	assert.True(t, errors.Is(err, util.ErrOutOfMemory))
	assert.Equal(t, 1, store.ChunkCount())
	assert.Equal(t, int64(64*8+8), alloc.Allocated())
}

func Test_storeInitializerAndTake(t *testing.T) {
	alloc := util.NewBoundedAllocator("t", 0)
	store, err := NewStore(StoreConfig{ChunkCapacity: 64, PTyp: common.BIT}, alloc, fillByte(0))
	require.NoError(t, err)
	require.NoError(t, store.EnsureCapacity(0))
	assert.Len(t, store.Chunk(0).Values, 8)
	assert.Equal(t, byte(0), store.Chunk(0).Values[0])

	// chunks added after the swap use the new initializer
	store.SetInitializer(fillByte(0xFF))
	require.NoError(t, store.EnsureCapacity(64))
	assert.Equal(t, byte(0), store.Chunk(0).Values[0])
	assert.Equal(t, byte(0xFF), store.Chunk(1).Values[0])
	assert.Equal(t, byte(0), store.Chunk(1).Validity[0])

	chunks := store.TakeChunks()
	assert.Len(t, chunks, 2)
	assert.Equal(t, 0, store.ChunkCount())
	assert.Equal(t, int64(0), alloc.Allocated())
}
