package accum

import (
	"fmt"
	"math"

	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/ordinal"
	"github.com/daviszhen/vecagg/pkg/util"
)

type Options struct {
	ChunkCapacity int
	// Layout of the packed mapping words passed to Accumulate.
	Layout    ordinal.Layout
	Allocator util.Allocator
}

func DefaultOptions() Options {
	return Options{
		ChunkCapacity: DefaultChunkCapacity,
		Layout:        ordinal.DefaultLayout,
		Allocator:     util.NewBoundedAllocator("accum", 0),
	}
}

// OptionsFromConfig builds options that draw chunks from alloc.
func OptionsFromConfig(cfg *util.Config, alloc util.Allocator) Options {
	return Options{
		ChunkCapacity: cfg.Accum.ChunkCapacity,
		Layout:        ordinal.LayoutFromOptions(cfg.Accum.Layout),
		Allocator:     alloc,
	}
}

// Supported reports whether New accepts the pair.
func Supported(kind Kind, typ common.LType) bool {
	if kind.IsCount() {
		return true
	}
	if typ.IsNumeric() {
		return true
	}
	switch typ.Id {
	case common.LTID_BOOLEAN, common.LTID_INTERVAL:
		return kind == Min || kind == Max
	default:
		return false
	}
}

// OutputType is the type of the vectors emitted for the pair.
func OutputType(kind Kind, typ common.LType) common.LType {
	if !Supported(kind, typ) {
		panic(fmt.Sprintf("usp %v(%v)", kind, typ))
	}
	switch {
	case kind.IsCount():
		return common.BigintType()
	case typ.Id == common.LTID_DECIMAL:
		return common.DoubleType()
	case kind == Sum && (typ.Id == common.LTID_INTEGER || typ.Id == common.LTID_BIGINT):
		return common.BigintType()
	case kind == Sum:
		return common.DoubleType()
	default:
		return typ
	}
}

// New builds an accumulator with an empty store. Unsupported pairs panic;
// invalid options are returned as errors.
func New(kind Kind, typ common.LType, opts Options) (Accumulator, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	outTyp := OutputType(kind, typ)
	if opts.Allocator == nil {
		opts.Allocator = util.NewBoundedAllocator("accum", 0)
	}
	base := accumBase{
		kind:   kind,
		inTyp:  typ,
		outTyp: outTyp,
		layout: opts.Layout,
	}
	acc := build(base)
	b := baseOf(acc)
	store, err := NewStore(StoreConfig{
		ChunkCapacity: opts.ChunkCapacity,
		PTyp:          outTyp.PTyp,
	}, opts.Allocator, b.initialize)
	if err != nil {
		return nil, err
	}
	b.store = store
	return acc, nil
}

func build(base accumBase) Accumulator {
	kind, typ := base.kind, base.inTyp
	if kind.IsCount() {
		return newCount(base)
	}
	switch typ.Id {
	case common.LTID_INTEGER:
		switch kind {
		case Sum:
			return newFixed[int32, int64](base, 0, sumInt[int32])
		case Max:
			return newFixed[int32, int32](base, math.MinInt32, maxInt[int32](math.MinInt32))
		case Min:
			return newFixed[int32, int32](base, math.MaxInt32, minInt[int32](math.MaxInt32))
		}
	case common.LTID_BIGINT:
		switch kind {
		case Sum:
			return newFixed[int64, int64](base, 0, sumInt[int64])
		case Max:
			return newFixed[int64, int64](base, math.MinInt64, maxInt[int64](math.MinInt64))
		case Min:
			return newFixed[int64, int64](base, math.MaxInt64, minInt[int64](math.MaxInt64))
		}
	case common.LTID_FLOAT:
		switch kind {
		case Sum:
			return newFixed[float32, float64](base, 0, sumFloat[float32])
		case Max:
			return newFixed[float32, float32](base, -math.MaxFloat32, maxFloat[float32])
		case Min:
			return newFixed[float32, float32](base, math.MaxFloat32, minFloat[float32])
		}
	case common.LTID_DOUBLE:
		switch kind {
		case Sum:
			return newFixed[float64, float64](base, 0, sumFloat[float64])
		case Max:
			return newFixed[float64, float64](base, -math.MaxFloat64, maxFloat[float64])
		case Min:
			return newFixed[float64, float64](base, math.MaxFloat64, minFloat[float64])
		}
	case common.LTID_DECIMAL:
		switch kind {
		case Sum:
			return newFixed[common.Hugeint, float64](base, 0, sumDecimal(typ.Scale))
		case Max:
			return newFixed[common.Hugeint, float64](base, -math.MaxFloat64, maxDecimal(typ.Scale))
		case Min:
			return newFixed[common.Hugeint, float64](base, math.MaxFloat64, minDecimal(typ.Scale))
		}
	case common.LTID_BOOLEAN:
		return newBit(base)
	case common.LTID_INTERVAL:
		switch kind {
		case Max:
			return newFixed[common.IntervalDay, common.IntervalDay](base, common.MinIntervalDay, maxInterval)
		case Min:
			return newFixed[common.IntervalDay, common.IntervalDay](base, common.MaxIntervalDay, minInterval)
		}
	}
	panic(fmt.Sprintf("usp %v(%v)", kind, typ))
}
