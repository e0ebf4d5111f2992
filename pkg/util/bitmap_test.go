package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_bitmap(t *testing.T) {
	mask := &Bitmap{}
	assert.True(t, mask.AllValid())
	assert.True(t, mask.RowIsValid(100))

	mask.Init(16)
	assert.Len(t, mask.Bits, 2)
	mask.Set(3, false)
	mask.Set(9, false)
	assert.False(t, mask.RowIsValid(3))
	assert.False(t, mask.RowIsValid(9))
	assert.True(t, mask.RowIsValid(4))
	assert.Equal(t, uint8(0xF7), mask.Bits[0])
	assert.Equal(t, uint8(0xFD), mask.Bits[1])
	assert.Equal(t, 14, mask.CountValid(16))

	mask.SetAllInvalid(12)
	assert.Equal(t, uint8(0), mask.Bits[0])
	assert.Equal(t, uint8(0xF0), mask.Bits[1])
}

func Test_rawBits(t *testing.T) {
	bits := make([]byte, 4)
	ptr := BytesSliceToPointer(bits)
	OrBit(ptr, 0, 1)
	OrBit(ptr, 13, 1)
	OrBit(ptr, 14, 0)
	assert.Equal(t, []byte{0x01, 0x20, 0, 0}, bits)
	assert.Equal(t, uint8(1), BitAt(ptr, 13))
	assert.Equal(t, uint8(0), BitAt(ptr, 14))

	AndNotBit(ptr, 13, 0)
	assert.Equal(t, uint8(1), BitAt(ptr, 13))
	AndNotBit(ptr, 13, 1)
	assert.Equal(t, uint8(0), BitAt(ptr, 13))
}

func Test_rawSlice(t *testing.T) {
	data := make([]byte, 32)
	s := MakeRawSlice[int64](data)
	assert.Equal(t, 4, s.Len())
	s.Set(2, -7)
	*s.Ref(3) += 5
	assert.Equal(t, int64(-7), s.At(2))
	assert.Equal(t, int64(5), s.At(3))
	assert.Equal(t, []int64{0, 0, -7, 5}, ToSlice[int64](data, 8))
}
