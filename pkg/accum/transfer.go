package accum

import (
	"fmt"

	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/util"
)

// Transfer hands the chunk memory of the first groups slots to output
// vectors without copying, one vector per chunk. Chunks past groups are
// dropped.
func (acc *accumBase) Transfer(groups int) []*chunk.Vector {
	if util.DebugChecks {
		acc.guard.Enter()
		defer acc.guard.Exit()
	}
	acc.mustBe("transfer", StateUninitialized, StateInitialized, StateAccumulating)
	if groups < 0 || groups > acc.store.Capacity() {
		panic(fmt.Sprintf("%v: transfer %d groups of capacity %d", acc, groups, acc.store.Capacity()))
	}
	capa := acc.store.ChunkCapacity()
	ptyp := acc.store.PTyp()
	chunks := acc.store.TakeChunks()
	ret := make([]*chunk.Vector, 0, len(chunks))
	for i, c := range chunks {
		slots := min(groups-i*capa, capa)
		if slots <= 0 {
			break
		}
		ret = append(ret, chunk.NewVectorFrom(
			acc.outTyp,
			slots,
			c.Values[:ptyp.DataBytes(slots)],
			c.Validity[:util.EntryCount(slots)],
		))
	}
	acc.state = StateTransferred
	return ret
}
