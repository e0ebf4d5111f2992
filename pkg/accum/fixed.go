package accum

import (
	"unsafe"

	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/util"
)

// combineFunc folds one input value into a slot. valid is the 0/1
// validity bit of the input row.
type combineFunc[I, S any] func(slot *S, in I, valid uint8)

// fixedAccumulator is the shared core for fixed-width inputs: I is the
// input element type, S the slot type.
type fixedAccumulator[I, S any] struct {
	accumBase
	initial S
	combine combineFunc[I, S]
}

func newFixed[I, S any](base accumBase, initial S, combine combineFunc[I, S]) *fixedAccumulator[I, S] {
	acc := &fixedAccumulator[I, S]{
		accumBase: base,
		initial:   initial,
		combine:   combine,
	}
	acc.fill = acc.fillInitial
	acc.bind = acc.bindInput
	return acc
}

func (acc *fixedAccumulator[I, S]) fillInitial(c *Chunk) {
	slots := util.MakeRawSlice[S](c.Values)
	for i := 0; i < slots.Len(); i++ {
		slots.Set(i, acc.initial)
	}
}

func (acc *fixedAccumulator[I, S]) bindInput(input *chunk.Vector) func(ordinal, index int) {
	values := util.MakeRawSlice[I](input.Data)
	validity := util.BytesSliceToPointer(input.Validity())
	store := acc.store
	slots := make([]util.RawSlice[S], store.ChunkCount())
	bits := make([]unsafe.Pointer, store.ChunkCount())
	for i := range slots {
		c := store.Chunk(i)
		slots[i] = util.MakeRawSlice[S](c.Values)
		bits[i] = c.ValidityPtr()
	}
	combine := acc.combine
	return func(ordinal, index int) {
		ci, off := store.AddressFor(ordinal)
		valid := util.BitAt(validity, index)
		combine(slots[ci].Ref(off), values.At(index), valid)
		util.OrBit(bits[ci], off, valid)
	}
}
