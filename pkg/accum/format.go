package accum

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/daviszhen/vecagg/pkg/util"
)

// Format renders the accumulator and its chunks for debugging.
func Format(acc Accumulator) string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("%v(%v)", acc.Kind(), acc.InputType()))
	WriteTree(tree, acc)
	return tree.String()
}

func WriteTree(tree treeprint.Tree, acc Accumulator) {
	tree.AddMetaNode("state", acc.State().String())
	tree.AddMetaNode("output", acc.OutputType().String())
	store := acc.Store()
	if store == nil || acc.State() == StateTransferred || acc.State() == StateClosed {
		return
	}
	branch := tree.AddMetaBranch("store",
		fmt.Sprintf("capacity %d, %d bytes", store.Capacity(), store.Allocated()))
	capa := store.ChunkCapacity()
	for i := 0; i < store.ChunkCount(); i++ {
		mask := util.Bitmap{Bits: store.Chunk(i).Validity}
		valid := mask.CountValid(capa)
		branch.AddMetaNode(i, fmt.Sprintf("valid %d/%d", valid, capa))
	}
}
