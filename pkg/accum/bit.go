package accum

import (
	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/util"
)

// bitAccumulator keeps one packed bit per group. Max is the logical OR of
// the non-null inputs and starts from 0. Min is the logical AND and starts
// from 1.
type bitAccumulator struct {
	accumBase
}

func newBit(base accumBase) *bitAccumulator {
	acc := &bitAccumulator{accumBase: base}
	acc.fill = acc.fillInitial
	acc.bind = acc.bindInput
	return acc
}

func (acc *bitAccumulator) fillInitial(c *Chunk) {
	var b byte
	if acc.kind == Min {
		b = 0xFF
	}
	for i := range c.Values {
		c.Values[i] = b
	}
}

func (acc *bitAccumulator) bindInput(input *chunk.Vector) func(ordinal, index int) {
	values := util.BytesSliceToPointer(input.Data)
	validity := util.BytesSliceToPointer(input.Validity())
	store := acc.store
	chunks := make([]*Chunk, store.ChunkCount())
	for i := range chunks {
		chunks[i] = store.Chunk(i)
	}
	if acc.kind == Max {
		return func(ordinal, index int) {
			ci, off := store.AddressFor(ordinal)
			c := chunks[ci]
			valid := util.BitAt(validity, index)
			util.OrBit(c.ValuesPtr(), off, valid&util.BitAt(values, index))
			util.OrBit(c.ValidityPtr(), off, valid)
		}
	}
	return func(ordinal, index int) {
		ci, off := store.AddressFor(ordinal)
		c := chunks[ci]
		valid := util.BitAt(validity, index)
		util.AndNotBit(c.ValuesPtr(), off, valid&(util.BitAt(values, index)^1))
		util.OrBit(c.ValidityPtr(), off, valid)
	}
}
