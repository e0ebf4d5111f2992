package util

import (
	"unsafe"
)

// Bitmap is a validity mask, one bit per row, LSB first within a byte.
// A set bit means the row is valid. An empty bitmap means all rows are valid.
type Bitmap struct {
	Bits []uint8
}

func (bm *Bitmap) Data() []uint8 {
	return bm.Bits
}

func (bm *Bitmap) Bytes(count int) int {
	return EntryCount(count)
}

func (bm *Bitmap) Init(count int) {
	cnt := EntryCount(count)
	bm.Bits = GAlloc.Alloc(cnt)
	for i := range bm.Bits {
		bm.Bits[i] = 0xFF
	}
}

// Wrap makes the bitmap share an existing bit region.
func (bm *Bitmap) Wrap(bits []uint8) {
	bm.Bits = bits
}

func (bm *Bitmap) Invalid() bool {
	return len(bm.Bits) == 0
}

func GetEntryIndex(idx uint64) (uint64, uint64) {
	return idx / 8, idx % 8
}

func EntryIsSet(e uint8, pos uint64) bool {
	return e&(1<<pos) != 0
}

func (bm *Bitmap) RowIsValidUnsafe(idx uint64) bool {
	eIdx, pos := GetEntryIndex(idx)
	return EntryIsSet(bm.Bits[eIdx], pos)
}

func (bm *Bitmap) RowIsValid(idx uint64) bool {
	if bm.Invalid() {
		return true
	}
	return bm.RowIsValidUnsafe(idx)
}

func (bm *Bitmap) Set(ridx uint64, valid bool) {
	if valid {
		bm.SetValid(ridx)
	} else {
		bm.SetInvalid(ridx)
	}
}

func (bm *Bitmap) SetValid(ridx uint64) {
	if bm.Invalid() {
		return
	}
	eIdx, pos := GetEntryIndex(ridx)
	bm.Bits[eIdx] |= 1 << pos
}

func (bm *Bitmap) SetInvalid(ridx uint64) {
	if bm.Invalid() {
		bm.Init(DefaultVectorSize)
	}
	eIdx, pos := GetEntryIndex(ridx)
	bm.Bits[eIdx] &= ^(1 << pos)
}

func EntryCount(cnt int) int {
	return (cnt + 7) / 8
}

func (bm *Bitmap) PrepareSpace(cnt int) {
	if bm.Invalid() {
		bm.Init(cnt)
	}
}

func (bm *Bitmap) SetAllInvalid(cnt int) {
	bm.PrepareSpace(cnt)
	if cnt == 0 {
		return
	}
	lastEidx := EntryCount(cnt) - 1
	for i := 0; i < lastEidx; i++ {
		bm.Bits[i] = 0
	}
	lastBits := cnt % 8
	if lastBits == 0 {
		bm.Bits[lastEidx] = 0
	} else {
		bm.Bits[lastEidx] = 0xFF << lastBits
	}
}

func (bm *Bitmap) AllValid() bool {
	return bm.Invalid()
}

// CountValid counts set bits among the first cnt rows.
func (bm *Bitmap) CountValid(cnt int) int {
	if bm.Invalid() {
		return cnt
	}
	ret := 0
	for i := 0; i < cnt; i++ {
		if bm.RowIsValidUnsafe(uint64(i)) {
			ret++
		}
	}
	return ret
}

// BitAt reads bit idx of the region at ptr as 0 or 1.
func BitAt(ptr unsafe.Pointer, idx int) uint8 {
	return (Load[uint8](ptr, idx>>3) >> (idx & 7)) & 1
}

// OrBit ors a 0/1 value into bit idx of the region at ptr.
func OrBit(ptr unsafe.Pointer, idx int, bit uint8) {
	p := (*uint8)(PointerAdd(ptr, idx>>3))
	*p |= bit << (idx & 7)
}

// AndNotBit clears bit idx of the region at ptr when bit is 1.
func AndNotBit(ptr unsafe.Pointer, idx int, bit uint8) {
	p := (*uint8)(PointerAdd(ptr, idx>>3))
	*p &^= bit << (idx & 7)
}
