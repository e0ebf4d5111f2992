package accum

import (
	"fmt"

	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/util"
)

const (
	FaultSpillWrite = "spill.write"
)

// Spilled is the output state of one accumulator read back from a spill.
type Spilled struct {
	Typ     common.LType
	Groups  int
	Vectors []*chunk.Vector
}

// WriteSpill serializes the first groups slots of acc in output layout:
//
//	[type][groups][chunk count]
//	per chunk: [slots][checksum][validity][values]
//
// The checksum covers the validity and value bytes of the chunk. The
// accumulator itself is left untouched.
func WriteSpill(serial util.Serialize, acc Accumulator, groups int) error {
	b := baseOf(acc)
	b.mustBe("spill", StateUninitialized, StateInitialized, StateAccumulating)
	store := b.store
	if groups < 0 || groups > store.Capacity() {
		panic(fmt.Sprintf("%v: spill %d groups of capacity %d", b, groups, store.Capacity()))
	}
	if fa := util.Check(util.FAULTS_SCOPE_SPILL, FaultSpillWrite); fa != nil {
		if err := fa.Action(fa.Args); err != nil {
			return err
		}
	}
	err := b.outTyp.Serialize(serial)
	if err != nil {
		return err
	}
	capa := store.ChunkCapacity()
	nChunks := (groups + capa - 1) / capa
	err = util.Write[uint32](uint32(groups), serial)
	if err != nil {
		return err
	}
	err = util.Write[uint32](uint32(nChunks), serial)
	if err != nil {
		return err
	}
	for i := 0; i < nChunks; i++ {
		c := store.Chunk(i)
		slots := min(groups-i*capa, capa)
		validity := c.Validity[:util.EntryCount(slots)]
		values := c.Values[:store.PTyp().DataBytes(slots)]
		err = util.Write[uint32](uint32(slots), serial)
		if err != nil {
			return err
		}
		err = util.Write[uint64](spillChecksum(validity, values), serial)
		if err != nil {
			return err
		}
		err = serial.WriteData(validity, len(validity))
		if err != nil {
			return err
		}
		err = serial.WriteData(values, len(values))
		if err != nil {
			return err
		}
	}
	return nil
}

func spillChecksum(validity, values []byte) uint64 {
	return util.ChecksumBytes(validity) ^ util.ChecksumU64(util.ChecksumBytes(values))
}

// ReadSpill reads back what WriteSpill wrote.
func ReadSpill(deserial util.Deserialize) (*Spilled, error) {
	typ, err := common.DeserializeLType(deserial)
	if err != nil {
		return nil, err
	}
	var groups, nChunks uint32
	err = util.Read[uint32](&groups, deserial)
	if err != nil {
		return nil, err
	}
	err = util.Read[uint32](&nChunks, deserial)
	if err != nil {
		return nil, err
	}
	ret := &Spilled{
		Typ:    typ,
		Groups: int(groups),
	}
	total := 0
	for i := uint32(0); i < nChunks; i++ {
		var slots uint32
		var sum uint64
		err = util.Read[uint32](&slots, deserial)
		if err != nil {
			return nil, err
		}
		err = util.Read[uint64](&sum, deserial)
		if err != nil {
			return nil, err
		}
		validity := make([]byte, util.EntryCount(int(slots)))
		values := make([]byte, typ.PTyp.DataBytes(int(slots)))
		err = deserial.ReadData(validity, len(validity))
		if err != nil {
			return nil, err
		}
		err = deserial.ReadData(values, len(values))
		if err != nil {
			return nil, err
		}
		if got := spillChecksum(validity, values); got != sum {
			return nil, fmt.Errorf("spilled chunk %d of %v: checksum %x, expected %x", i, typ, got, sum)
		}
		ret.Vectors = append(ret.Vectors, chunk.NewVectorFrom(typ, int(slots), values, validity))
		total += int(slots)
	}
	if total != ret.Groups {
		return nil, fmt.Errorf("spilled %v: %d slots for %d groups", typ, total, ret.Groups)
	}
	return ret, nil
}
