package hashagg

import (
	"errors"
	"fmt"

	treemap "github.com/liyue201/gostl/ds/map"

	"github.com/daviszhen/vecagg/pkg/accum"
	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/ordinal"
	"github.com/daviszhen/vecagg/pkg/util"
)

// Aggregate names one accumulator: its kind and input type. Aggregate i
// reads input column i.
type Aggregate struct {
	Kind accum.Kind
	Typ  common.LType
}

type Config struct {
	Partitions int
	SpillDir   string
	Compress   bool
	Accum      accum.Options
}

func ConfigFrom(cfg *util.Config, alloc util.Allocator) Config {
	return Config{
		Partitions: cfg.Spill.Partitions,
		SpillDir:   cfg.Spill.Dir,
		Compress:   cfg.Spill.Compress,
		Accum:      accum.OptionsFromConfig(cfg, alloc),
	}
}

type partition struct {
	id    int
	table *groupTable
	accs  []accum.Accumulator
}

type Stats struct {
	Rows        int
	Spills      int
	SpillGroups int
	Merged      int
}

// HashAgg groups rows by an int64 key and folds every aggregate column into
// per-partition accumulators. When the allocator runs out it spills the
// largest partition and keeps going; Finish merges the spilled state back.
type HashAgg struct {
	cfg    Config
	aggs   []Aggregate
	parts  []*partition
	spills *treemap.Map[int, []string]
	seq    int
	dir    string
	stats  Stats
	done   bool
}

func New(cfg Config, aggs []Aggregate) (*HashAgg, error) {
	if err := cfg.Accum.Layout.Validate(); err != nil {
		return nil, err
	}
	if cfg.Partitions < 1 || cfg.Partitions > cfg.Accum.Layout.MaxPartition()+1 {
		return nil, fmt.Errorf("partitions %d out of [1,%d]", cfg.Partitions, cfg.Accum.Layout.MaxPartition()+1)
	}
	for _, agg := range aggs {
		if !accum.Supported(agg.Kind, agg.Typ) {
			return nil, fmt.Errorf("unsupported aggregate %v(%v)", agg.Kind, agg.Typ)
		}
	}
	hagg := &HashAgg{
		cfg:  cfg,
		aggs: aggs,
		spills: treemap.New[int, []string](func(a, b int) int {
			return a - b
		}),
	}
	for i := 0; i < cfg.Partitions; i++ {
		part := &partition{id: i, table: newGroupTable()}
		if err := hagg.resetAccumulators(part); err != nil {
			hagg.Close()
			return nil, err
		}
		hagg.parts = append(hagg.parts, part)
	}
	return hagg, nil
}

func (hagg *HashAgg) resetAccumulators(part *partition) error {
	for _, acc := range part.accs {
		acc.Close()
	}
	part.accs = part.accs[:0]
	for _, agg := range hagg.aggs {
		acc, err := accum.New(agg.Kind, agg.Typ, hagg.cfg.Accum)
		if err != nil {
			for _, built := range part.accs {
				built.Close()
			}
			part.accs = nil
			return err
		}
		part.accs = append(part.accs, acc)
	}
	return nil
}

func (hagg *HashAgg) Stats() Stats {
	return hagg.stats
}

func (hagg *HashAgg) partitionOf(key groupKey) int {
	if key.Null {
		return 0
	}
	return int(util.HashInt64(key.Val) % uint64(len(hagg.parts)))
}

func keyAt(keys *chunk.Vector, i int) groupKey {
	if keys.IsNull(i) {
		return groupKey{Null: true}
	}
	return groupKey{Val: chunk.GetSlice[int64](keys)[i]}
}

// Consume folds count rows. keys is a BIGINT vector; inputs has one vector
// per aggregate, nil allowed for count1.
func (hagg *HashAgg) Consume(keys *chunk.Vector, inputs []*chunk.Vector, count int) error {
	if hagg.done {
		panic("consume after finish")
	}
	if keys.Typ().Id != common.LTID_BIGINT {
		panic(fmt.Sprintf("usp key type %v", keys.Typ()))
	}
	util.AssertFunc(len(inputs) == len(hagg.aggs))
	layout := hagg.cfg.Accum.Layout
	if count > layout.MaxIndex()+1 {
		return fmt.Errorf("batch of %d rows exceeds %d", count, layout.MaxIndex()+1)
	}
	parts := make([]int, count)
	ords := make([]int, count)
	spilled := make(map[int]bool)
	for done := 0; done < count; {
		end, err := hagg.route(keys, done, count, parts, ords)
		if end > done {
			hagg.accumulate(inputs, parts, ords, done, end)
			hagg.stats.Rows += end - done
			clear(spilled)
			done = end
		}
		if err == nil {
			break
		}
		if !errors.Is(err, util.ErrOutOfMemory) {
			return err
		}
		victim := pickVictim(hagg.parts, spilled)
		if victim == nil {
			return err
		}
		spilled[victim.id] = true
		if err = hagg.spill(victim); err != nil {
			return err
		}
	}
	return nil
}

// route finds the partition and ordinal of rows [from, count) and makes the
// ordinals addressable. It stops at the first row that cannot be placed and
// returns its index; rows before it are ready to accumulate.
func (hagg *HashAgg) route(keys *chunk.Vector, from, count int, parts, ords []int) (int, error) {
	for i := from; i < count; i++ {
		key := keyAt(keys, i)
		p := hagg.partitionOf(key)
		ord, err := hagg.place(hagg.parts[p], key)
		if err != nil {
			return i, err
		}
		parts[i] = p
		ords[i] = ord
	}
	return count, nil
}

// accumulate folds the routed rows [from, end). A whole batch on a single
// partition takes the dense path.
func (hagg *HashAgg) accumulate(inputs []*chunk.Vector, parts, ords []int, from, end int) {
	layout := hagg.cfg.Accum.Layout
	if len(hagg.parts) == 1 && from == 0 {
		dense := make(ordinal.Dense, end)
		for i := range dense {
			dense[i] = int32(ords[i])
		}
		for a, acc := range hagg.parts[0].accs {
			acc.AccumulateNoSpill(inputs[a], dense, end)
		}
		return
	}

	mapping := make(ordinal.Packed, end-from)
	for i := range mapping {
		mapping[i] = layout.Pack(parts[from+i], ords[from+i], from+i)
	}
	mapping.SortByPartition(layout)
	for _, run := range mapping.PartitionRuns(layout) {
		part := hagg.parts[run.Partition]
		for a, acc := range part.accs {
			acc.Accumulate(inputs[a], mapping[run.Start:run.End], run.Len())
		}
	}
}

// place returns the ordinal of key in part. A new key enters the table only
// after every accumulator can address its slot, so a failed call leaves the
// partition as it was.
func (hagg *HashAgg) place(part *partition, key groupKey) (int, error) {
	if ord, has := part.table.lookup(key); has {
		return ord, nil
	}
	ord := part.table.count()
	if ord > hagg.cfg.Accum.Layout.MaxOrdinal() {
		return 0, fmt.Errorf("partition %d: %d groups exceed the ordinal width", part.id, ord+1)
	}
	for _, acc := range part.accs {
		if err := acc.EnsureCapacity(ord); err != nil {
			return 0, err
		}
	}
	return part.table.insert(key), nil
}

// pickVictim returns the candidate with the most groups that is not in
// skip.
func pickVictim(candidates []*partition, skip map[int]bool) *partition {
	var victim *partition
	for _, part := range candidates {
		if skip[part.id] || part.table.count() == 0 {
			continue
		}
		if victim == nil || part.table.count() > victim.table.count() {
			victim = part
		}
	}
	return victim
}

func (hagg *HashAgg) Close() {
	for _, part := range hagg.parts {
		for _, acc := range part.accs {
			if acc.State() != accum.StateClosed {
				acc.Close()
			}
		}
		part.accs = nil
	}
	hagg.removeSpills()
}
