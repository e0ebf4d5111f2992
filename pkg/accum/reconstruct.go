package accum

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/daviszhen/vecagg/pkg/util"
)

// Reconstruct builds the accumulator that merges previously emitted output
// of prev back into prev's store. The chunks are carried over verbatim:
//
//   - decimal min/max/sum become double min/max/sum over the same float64 slots
//   - count1 and count become bigint sum over the same int64 slots
//   - integer sum becomes bigint sum, float sum becomes double sum
//   - everything else keeps its kind over its own output type
//
// The new accumulator takes inputs of prev's output type. prev moves to
// the reconstructed state and no longer owns the store.
func Reconstruct(prev Accumulator) Accumulator {
	pb := baseOf(prev)
	if util.DebugChecks {
		pb.guard.Enter()
		defer pb.guard.Exit()
	}
	pb.mustBe("reconstruct", StateUninitialized, StateInitialized, StateAccumulating)

	kind := pb.kind
	if kind.IsCount() {
		kind = Sum
	}
	inTyp := pb.outTyp
	base := accumBase{
		kind:   kind,
		inTyp:  inTyp,
		outTyp: OutputType(kind, inTyp),
		layout: pb.layout,
		store:  pb.store,
	}
	if base.outTyp.PTyp != pb.store.PTyp() {
		panic(fmt.Sprintf("reconstruct %v as %v changes slot type", pb, &base))
	}
	next := build(base)
	nb := baseOf(next)
	pb.store.SetInitializer(nb.initialize)
	if pb.store.ChunkCount() > 0 {
		nb.state = StateInitialized
	}
	pb.state = StateReconstructed
	util.Debug("accumulator reconstructed",
		zap.Stringer("from", pb),
		zap.Stringer("to", nb),
		zap.Int("chunks", pb.store.ChunkCount()))
	return next
}
