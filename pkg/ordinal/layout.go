package ordinal

import (
	"fmt"

	"github.com/daviszhen/vecagg/pkg/util"
)

// Layout places the three fields of a packed mapping word. Shifts and
// widths are in bits; fields must not overlap and must fit in 64 bits.
type Layout struct {
	IndexShift     uint
	IndexBits      uint
	PartitionShift uint
	PartitionBits  uint
	OrdinalShift   uint
	OrdinalBits    uint
}

// DefaultLayout: source index in bits 0-23, partition in 24-31, table
// ordinal in 32-62.
var DefaultLayout = Layout{
	IndexShift:     0,
	IndexBits:      24,
	PartitionShift: 24,
	PartitionBits:  8,
	OrdinalShift:   32,
	OrdinalBits:    31,
}

func LayoutFromOptions(opts util.LayoutOptions) Layout {
	return Layout{
		IndexShift:     opts.IndexShift,
		IndexBits:      opts.IndexBits,
		PartitionShift: opts.PartitionShift,
		PartitionBits:  opts.PartitionBits,
		OrdinalShift:   opts.OrdinalShift,
		OrdinalBits:    opts.OrdinalBits,
	}
}

func fieldMask(shift, bits uint) uint64 {
	return ((uint64(1) << bits) - 1) << shift
}

func (l Layout) Validate() error {
	fields := []struct {
		name        string
		shift, bits uint
	}{
		{"index", l.IndexShift, l.IndexBits},
		{"partition", l.PartitionShift, l.PartitionBits},
		{"ordinal", l.OrdinalShift, l.OrdinalBits},
	}
	var used uint64
	for _, f := range fields {
		if f.bits == 0 || f.shift+f.bits > 64 {
			return fmt.Errorf("layout field %s [%d,+%d) does not fit a 64-bit word", f.name, f.shift, f.bits)
		}
		m := fieldMask(f.shift, f.bits)
		if used&m != 0 {
			return fmt.Errorf("layout field %s [%d,+%d) overlaps another field", f.name, f.shift, f.bits)
		}
		used |= m
	}
	if l.OrdinalBits > 31 {
		return fmt.Errorf("layout ordinal width %d exceeds 31 bits", l.OrdinalBits)
	}
	return nil
}

func (l Layout) MaxOrdinal() int {
	return int(uint64(1)<<l.OrdinalBits) - 1
}

func (l Layout) MaxPartition() int {
	return int(uint64(1)<<l.PartitionBits) - 1
}

func (l Layout) MaxIndex() int {
	return int(uint64(1)<<l.IndexBits) - 1
}

// Pack builds one mapping word. Values wider than their field panic.
func (l Layout) Pack(partition, ordinal, index int) uint64 {
	if partition < 0 || partition > l.MaxPartition() ||
		ordinal < 0 || ordinal > l.MaxOrdinal() ||
		index < 0 || index > l.MaxIndex() {
		panic(fmt.Sprintf("pack (%d,%d,%d) out of layout range", partition, ordinal, index))
	}
	return uint64(partition)<<l.PartitionShift |
		uint64(ordinal)<<l.OrdinalShift |
		uint64(index)<<l.IndexShift
}

func (l Layout) Ordinal(word uint64) int {
	return int((word >> l.OrdinalShift) & (uint64(1)<<l.OrdinalBits - 1))
}

func (l Layout) Index(word uint64) int {
	return int((word >> l.IndexShift) & (uint64(1)<<l.IndexBits - 1))
}

func (l Layout) Partition(word uint64) int {
	return int((word >> l.PartitionShift) & (uint64(1)<<l.PartitionBits - 1))
}
