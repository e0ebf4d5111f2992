package hashagg

import (
	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/common"
)

// Result is the output of one partition: a key column and one column per
// aggregate, split into chunks of at most the accumulator chunk capacity.
type Result struct {
	Partition int
	Groups    int
	Chunks    []*chunk.Chunk
}

func (res *Result) Types() []common.LType {
	if len(res.Chunks) == 0 {
		return nil
	}
	return res.Chunks[0].Types()
}

// emit transfers the state of part into a result and leaves the
// partition empty.
func (hagg *HashAgg) emit(part *partition) *Result {
	groups := part.table.count()
	res := &Result{Partition: part.id, Groups: groups}
	cols := make([][]*chunk.Vector, len(part.accs))
	for a, acc := range part.accs {
		cols[a] = acc.Transfer(groups)
		acc.Close()
	}
	offset := 0
	for c := 0; offset < groups; c++ {
		n := min(groups-offset, hagg.cfg.Accum.ChunkCapacity)
		vecs := []*chunk.Vector{keysVector(part.table.keys[offset : offset+n])}
		for a := range cols {
			vecs = append(vecs, cols[a][c])
		}
		res.Chunks = append(res.Chunks, chunk.NewChunkFrom(vecs, n))
		offset += n
	}
	part.table.clear()
	part.accs = nil
	return res
}
