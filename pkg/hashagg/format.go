package hashagg

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/daviszhen/vecagg/pkg/accum"
)

// Format renders every partition with its accumulators and spill files.
func (hagg *HashAgg) Format() string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("hashagg partitions %d, rows %d", len(hagg.parts), hagg.stats.Rows))
	for _, part := range hagg.parts {
		branch := tree.AddBranch(fmt.Sprintf("partition %d: %d groups", part.id, part.table.count()))
		if files, err := hagg.spills.Get(part.id); err == nil {
			branch.AddMetaNode("spills", fmt.Sprintf("%d files", len(files)))
		}
		for i, acc := range part.accs {
			sub := branch.AddMetaBranch(i, fmt.Sprintf("%v(%v)", acc.Kind(), acc.InputType()))
			accum.WriteTree(sub, acc)
		}
	}
	return tree.String()
}
