package accum

import (
	"unsafe"

	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/util"
)

// countAccumulator keeps an int64 per group. Count1 adds one per matched
// record; CountColumn adds the record's validity bit. Either way the slot
// becomes valid on the first hit.
type countAccumulator struct {
	accumBase
}

func newCount(base accumBase) *countAccumulator {
	acc := &countAccumulator{accumBase: base}
	acc.fill = acc.fillZero
	acc.bind = acc.bindInput
	return acc
}

func (acc *countAccumulator) fillZero(c *Chunk) {
	clear(c.Values)
}

func (acc *countAccumulator) bindInput(input *chunk.Vector) func(ordinal, index int) {
	store := acc.store
	slots := make([]util.RawSlice[int64], store.ChunkCount())
	bits := make([]unsafe.Pointer, store.ChunkCount())
	for i := range slots {
		c := store.Chunk(i)
		slots[i] = util.MakeRawSlice[int64](c.Values)
		bits[i] = c.ValidityPtr()
	}
	if acc.kind == Count1 {
		return func(ordinal, _ int) {
			ci, off := store.AddressFor(ordinal)
			*slots[ci].Ref(off) += 1
			util.OrBit(bits[ci], off, 1)
		}
	}
	validity := util.BytesSliceToPointer(input.Validity())
	return func(ordinal, index int) {
		ci, off := store.AddressFor(ordinal)
		*slots[ci].Ref(off) += int64(util.BitAt(validity, index))
		util.OrBit(bits[ci], off, 1)
	}
}
