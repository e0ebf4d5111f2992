package ordinal

import (
	"golang.org/x/exp/slices"
)

// Packed is the spill-aware mapping: one word per record carrying the
// partition, the table ordinal and the record's index in the input batch.
type Packed []uint64

func (p Packed) Ordinal(l Layout, i int) int {
	return l.Ordinal(p[i])
}

func (p Packed) Index(l Layout, i int) int {
	return l.Index(p[i])
}

func (p Packed) Partition(l Layout, i int) int {
	return l.Partition(p[i])
}

// Each calls fn with (ordinal, source index) for the first count records,
// in mapping order.
func (p Packed) Each(l Layout, count int, fn func(ordinal, index int)) {
	oShift, oMask := l.OrdinalShift, uint64(1)<<l.OrdinalBits-1
	iShift, iMask := l.IndexShift, uint64(1)<<l.IndexBits-1
	for _, word := range p[:count] {
		fn(int((word>>oShift)&oMask), int((word>>iShift)&iMask))
	}
}

// SortByPartition groups records by partition. Records of one partition
// keep their relative order.
func (p Packed) SortByPartition(l Layout) {
	slices.SortStableFunc(p, func(a, b uint64) int {
		return l.Partition(a) - l.Partition(b)
	})
}

type Run struct {
	Partition int
	Start     int
	End       int
}

func (r Run) Len() int {
	return r.End - r.Start
}

// PartitionRuns splits a partition-sorted mapping into maximal runs of one
// partition.
func (p Packed) PartitionRuns(l Layout) []Run {
	var runs []Run
	for i := 0; i < len(p); {
		part := l.Partition(p[i])
		j := i + 1
		for j < len(p) && l.Partition(p[j]) == part {
			j++
		}
		runs = append(runs, Run{Partition: part, Start: i, End: j})
		i = j
	}
	return runs
}
