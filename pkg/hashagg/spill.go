package hashagg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/daviszhen/vecagg/pkg/accum"
	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/ordinal"
	"github.com/daviszhen/vecagg/pkg/util"
)

func (hagg *HashAgg) spillDir() (string, error) {
	if hagg.dir != "" {
		return hagg.dir, nil
	}
	dir, err := os.MkdirTemp(hagg.cfg.SpillDir, "vecagg-spill-")
	if err != nil {
		return "", err
	}
	hagg.dir = dir
	return dir, nil
}

func (hagg *HashAgg) newSerialize(path string) (util.Serialize, error) {
	if hagg.cfg.Compress {
		return util.NewZstdSerialize(path)
	}
	return util.NewFileSerialize(path)
}

func (hagg *HashAgg) newDeserialize(path string) (util.Deserialize, error) {
	if hagg.cfg.Compress {
		return util.NewZstdDeserialize(path)
	}
	return util.NewFileDeserialize(path)
}

func keysVector(keys []groupKey) *chunk.Vector {
	vec := chunk.NewFlatVector(common.BigintType(), max(len(keys), 1))
	vals := chunk.GetSlice[int64](vec)
	for i, key := range keys {
		if key.Null {
			vec.SetNull(i, true)
			continue
		}
		vals[i] = key.Val
	}
	return vec
}

// spill writes the groups of part to a new file, then starts the partition
// over with empty accumulators. A file holds the keys as a chunk followed
// by the state of every accumulator.
func (hagg *HashAgg) spill(part *partition) error {
	dir, err := hagg.spillDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("p%d-%d.spill", part.id, hagg.seq))
	hagg.seq++
	groups := part.table.count()
	if err = hagg.writeSpillFile(part, path); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("spill partition %d: %w", part.id, err)
	}
	files, _ := hagg.spills.Get(part.id)
	hagg.spills.Insert(part.id, append(files, path))

	part.table.clear()
	if err = hagg.resetAccumulators(part); err != nil {
		return err
	}
	hagg.stats.Spills++
	hagg.stats.SpillGroups += groups
	util.Info("partition spilled",
		zap.Int("partition", part.id),
		zap.Int("groups", groups),
		zap.String("file", path))
	return nil
}

func (hagg *HashAgg) writeSpillFile(part *partition, path string) (err error) {
	serial, err := hagg.newSerialize(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, serial.Close())
	}()
	groups := part.table.count()
	keys := chunk.NewChunkFrom([]*chunk.Vector{keysVector(part.table.keys)}, groups)
	if err = keys.Serialize(serial); err != nil {
		return err
	}
	for _, acc := range part.accs {
		if err = accum.WriteSpill(serial, acc, groups); err != nil {
			return err
		}
	}
	return nil
}

// Finish emits every partition. Partitions that never spilled go first so
// their memory is free before the spilled ones are merged back. While
// merging, the in-memory state of partitions still waiting for their merge
// may be spilled again; if that is not enough the out of memory error is
// returned.
func (hagg *HashAgg) Finish() ([]*Result, error) {
	if hagg.done {
		panic("finish twice")
	}
	hagg.done = true
	defer hagg.removeSpills()
	ret := make([]*Result, len(hagg.parts))
	var pending []*partition
	for _, part := range hagg.parts {
		if _, err := hagg.spills.Get(part.id); err != nil {
			ret[part.id] = hagg.emit(part)
		} else {
			pending = append(pending, part)
		}
	}
	for i, part := range pending {
		if err := hagg.merge(part, pending[i+1:]); err != nil {
			return nil, err
		}
		ret[part.id] = hagg.emit(part)
	}
	return ret, nil
}

func (hagg *HashAgg) merge(part *partition, waiting []*partition) error {
	for a, acc := range part.accs {
		part.accs[a] = accum.Reconstruct(acc)
		acc.Close()
	}
	files, _ := hagg.spills.Get(part.id)
	for _, path := range files {
		if err := hagg.mergeFile(part, path, waiting); err != nil {
			return fmt.Errorf("merge partition %d from %s: %w", part.id, path, err)
		}
	}
	util.Debug("partition merged",
		zap.Int("partition", part.id),
		zap.Int("files", len(files)),
		zap.Int("groups", part.table.count()))
	return nil
}

func (hagg *HashAgg) mergeFile(part *partition, path string, waiting []*partition) (err error) {
	deserial, err := hagg.newDeserialize(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, deserial.Close())
	}()
	keys := &chunk.Chunk{}
	if err = keys.Deserialize(deserial); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty spill file: %w", io.ErrUnexpectedEOF)
		}
		return err
	}
	groups := keys.Card()
	ords := make([]int32, groups)
	evicted := make(map[int]bool)
	for {
		err = hagg.placeKeys(part, keys.Data[0], ords)
		if err == nil {
			break
		}
		if !errors.Is(err, util.ErrOutOfMemory) {
			return err
		}
		victim := pickVictim(waiting, evicted)
		if victim == nil {
			return err
		}
		evicted[victim.id] = true
		if err = hagg.spill(victim); err != nil {
			return err
		}
	}
	for _, acc := range part.accs {
		var spilled *accum.Spilled
		spilled, err = accum.ReadSpill(deserial)
		if err != nil {
			return err
		}
		if spilled.Groups != groups || !spilled.Typ.Equal(acc.InputType()) {
			return fmt.Errorf("spilled %d groups of %v, expected %d of %v",
				spilled.Groups, spilled.Typ, groups, acc.InputType())
		}
		offset := 0
		for _, vec := range spilled.Vectors {
			mapping := ordinal.Dense(ords[offset : offset+vec.Cap()])
			acc.AccumulateNoSpill(vec, mapping, vec.Cap())
			offset += vec.Cap()
		}
	}
	hagg.stats.Merged += groups
	return nil
}

// placeKeys assigns ordinals to spilled keys and makes them addressable.
// It can be retried after an out of memory error.
func (hagg *HashAgg) placeKeys(part *partition, keys *chunk.Vector, ords []int32) error {
	for i := range ords {
		ord, err := hagg.place(part, keyAt(keys, i))
		if err != nil {
			return err
		}
		ords[i] = int32(ord)
	}
	return nil
}

func (hagg *HashAgg) removeSpills() {
	for iter := hagg.spills.Begin(); iter.IsValid(); iter.Next() {
		for _, path := range iter.Value() {
			_ = os.Remove(path)
		}
	}
	hagg.spills.Clear()
	if hagg.dir != "" {
		_ = os.Remove(hagg.dir)
		hagg.dir = ""
	}
}
