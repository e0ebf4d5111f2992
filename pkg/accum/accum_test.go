package accum

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/ordinal"
	"github.com/daviszhen/vecagg/pkg/util"
)

const testCapacity = 64

func testOptions() Options {
	opts := DefaultOptions()
	opts.ChunkCapacity = testCapacity
	return opts
}

func newAcc(t *testing.T, kind Kind, typ common.LType) Accumulator {
	acc, err := New(kind, typ, testOptions())
	require.NoError(t, err)
	return acc
}

type record struct {
	ord int
	val *chunk.Value
}

var testTypes = []common.LType{
	common.IntegerType(),
	common.BigintType(),
	common.FloatType(),
	common.DoubleType(),
	common.DecimalType(18, 2),
	common.BooleanType(),
	common.IntervalType(),
}

var testKinds = []Kind{Count1, CountColumn, Sum, Min, Max}

func randValue(r *rand.Rand, typ common.LType, nullRatio float64) *chunk.Value {
	if r.Float64() < nullRatio {
		return chunk.NullValue(typ)
	}
	val := &chunk.Value{Typ: typ}
	switch typ.Id {
	case common.LTID_INTEGER:
		val.I64 = int64(r.Int31n(2000) - 1000)
	case common.LTID_BIGINT:
		val.I64 = r.Int63n(1<<40) - 1<<39
	case common.LTID_FLOAT:
		val.F64 = float64(float32(r.Float64()*200 - 100))
	case common.LTID_DOUBLE:
		val.F64 = r.Float64()*2e6 - 1e6
	case common.LTID_DECIMAL:
		val.Hugeint = common.HugeintFromInt64(r.Int63n(1e12) - 5e11)
	case common.LTID_BOOLEAN:
		val.Bool = r.Intn(2) == 1
	case common.LTID_INTERVAL:
		val.Interval = common.IntervalDay{
			Days:   r.Int31n(20) - 10,
			Millis: r.Int31() - math.MaxInt32/2,
		}
	default:
		panic("usp")
	}
	return val
}

func randRecords(r *rand.Rand, typ common.LType, n, groups int, nullRatio float64) []record {
	recs := make([]record, n)
	for i := range recs {
		recs[i] = record{ord: r.Intn(groups), val: randValue(r, typ, nullRatio)}
	}
	return recs
}

func inputOf(typ common.LType, vals []*chunk.Value) *chunk.Vector {
	vec := chunk.NewFlatVector(typ, max(len(vals), 1))
	for i, v := range vals {
		vec.SetValue(i, v)
	}
	return vec
}

// runDense feeds records in order through AccumulateNoSpill.
func runDense(t *testing.T, acc Accumulator, recs []record) {
	vals := make([]*chunk.Value, len(recs))
	mapping := make(ordinal.Dense, len(recs))
	for i, rec := range recs {
		require.NoError(t, acc.EnsureCapacity(rec.ord))
		vals[i] = rec.val
		mapping[i] = int32(rec.ord)
	}
	acc.AccumulateNoSpill(inputOf(acc.InputType(), vals), mapping, len(recs))
}

// runPacked feeds records in order through Accumulate, with the input rows
// permuted so that source index and position differ.
func runPacked(t *testing.T, r *rand.Rand, acc Accumulator, layout ordinal.Layout, recs []record) {
	perm := r.Perm(len(recs))
	vals := make([]*chunk.Value, len(recs))
	mapping := make(ordinal.Packed, len(recs))
	for i, rec := range recs {
		require.NoError(t, acc.EnsureCapacity(rec.ord))
		vals[perm[i]] = rec.val
		mapping[i] = layout.Pack(i%(layout.MaxPartition()+1), rec.ord, perm[i])
	}
	acc.Accumulate(inputOf(acc.InputType(), vals), mapping, len(recs))
}

// expected folds records the slow way.
func expected(kind Kind, typ common.LType, recs []record, groups int) []*chunk.Value {
	outTyp := OutputType(kind, typ)
	ret := make([]*chunk.Value, groups)
	for i := range ret {
		ret[i] = chunk.NullValue(outTyp)
	}
	toF64 := func(v *chunk.Value) float64 {
		if typ.Id == common.LTID_DECIMAL {
			return common.DecimalToFloat64(v.Hugeint, typ.Scale)
		}
		return v.F64
	}
	for _, rec := range recs {
		cur := ret[rec.ord]
		if kind.IsCount() {
			if cur.IsNull {
				*cur = chunk.Value{Typ: outTyp}
			}
			if kind == Count1 || !rec.val.IsNull {
				cur.I64++
			}
			continue
		}
		if rec.val.IsNull {
			continue
		}
		in := rec.val
		if cur.IsNull {
			*cur = chunk.Value{Typ: outTyp}
			switch {
			case kind == Sum:
			case typ.Id == common.LTID_DECIMAL:
				cur.F64 = toF64(in)
				continue
			default:
				*cur = *in
				continue
			}
		}
		switch {
		case kind == Sum && (typ.Id == common.LTID_INTEGER || typ.Id == common.LTID_BIGINT):
			cur.I64 += in.I64
		case kind == Sum:
			cur.F64 += toF64(in)
		case typ.Id == common.LTID_INTEGER || typ.Id == common.LTID_BIGINT:
			if (kind == Max && in.I64 > cur.I64) || (kind == Min && in.I64 < cur.I64) {
				cur.I64 = in.I64
			}
		case typ.Id == common.LTID_BOOLEAN:
			if kind == Max {
				cur.Bool = cur.Bool || in.Bool
			} else {
				cur.Bool = cur.Bool && in.Bool
			}
		case typ.Id == common.LTID_INTERVAL:
			c := in.Interval.Compare(cur.Interval)
			if (kind == Max && c > 0) || (kind == Min && c < 0) {
				cur.Interval = in.Interval
			}
		default:
			f := toF64(in)
			if (kind == Max && f > cur.F64) || (kind == Min && f < cur.F64) {
				cur.F64 = f
			}
		}
	}
	return ret
}

func transferValues(acc Accumulator, groups int) []*chunk.Value {
	vecs := acc.Transfer(groups)
	ret := make([]*chunk.Value, 0, groups)
	for _, vec := range vecs {
		for i := 0; i < vec.Cap(); i++ {
			ret = append(ret, vec.GetValue(i))
		}
	}
	return ret
}

func snapshot(store *Store) [][]byte {
	var ret [][]byte
	for i := 0; i < store.ChunkCount(); i++ {
		c := store.Chunk(i)
		ret = append(ret, append([]byte{}, c.Values...), append([]byte{}, c.Validity...))
	}
	return ret
}

func Test_bothPathsSameBytes(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const groups = 150
	for _, typ := range testTypes {
		for _, kind := range testKinds {
			if !Supported(kind, typ) {
				continue
			}
			recs := randRecords(r, typ, 1000, groups, 0.2)
			dense := newAcc(t, kind, typ)
			packed := newAcc(t, kind, typ)
			require.NoError(t, dense.EnsureCapacity(groups-1))
			require.NoError(t, packed.EnsureCapacity(groups-1))
			runDense(t, dense, recs)
			runPacked(t, r, packed, ordinal.DefaultLayout, recs)
			require.Equal(t, snapshot(dense.Store()), snapshot(packed.Store()), "%v(%v)", kind, typ)

			want := expected(kind, typ, recs, groups)
			got := transferValues(dense, groups)
			require.Len(t, got, groups)
			for g := 0; g < groups; g++ {
				assert.True(t, want[g].Equal(got[g]), "%v(%v) group %d: want %v got %v",
					kind, typ, g, want[g], got[g])
			}
			dense.Close()
			packed.Close()
		}
	}
}

func Test_customLayout(t *testing.T) {
	layout := ordinal.Layout{
		IndexShift:     44,
		IndexBits:      20,
		PartitionShift: 32,
		PartitionBits:  4,
		OrdinalShift:   0,
		OrdinalBits:    31,
	}
	opts := testOptions()
	opts.Layout = layout
	acc, err := New(Max, common.BigintType(), opts)
	require.NoError(t, err)
	r := rand.New(rand.NewSource(3))
	recs := randRecords(r, common.BigintType(), 300, 70, 0.1)
	runPacked(t, r, acc, layout, recs)

	ref := newAcc(t, Max, common.BigintType())
	runDense(t, ref, recs)
	assert.Equal(t, snapshot(ref.Store()), snapshot(acc.Store()))
}

func Test_badLayout(t *testing.T) {
	opts := testOptions()
	opts.Layout.PartitionShift = 0
	_, err := New(Max, common.BigintType(), opts)
	assert.Error(t, err)

	opts = testOptions()
	opts.ChunkCapacity = 100
	_, err = New(Max, common.BigintType(), opts)
	assert.Error(t, err)
}

func singleGroup(t *testing.T, kind Kind, typ common.LType, vals ...*chunk.Value) *chunk.Value {
	acc := newAcc(t, kind, typ)
	recs := make([]record, len(vals))
	for i, v := range vals {
		recs[i] = record{ord: 0, val: v}
	}
	runDense(t, acc, recs)
	return transferValues(acc, 1)[0]
}

func Test_intMaxScenarios(t *testing.T) {
	typ := common.IntegerType()
	got := singleGroup(t, Max, typ,
		&chunk.Value{Typ: typ, I64: 5},
		&chunk.Value{Typ: typ, I64: 9})
	assert.False(t, got.IsNull)
	assert.Equal(t, int64(9), got.I64)

	got = singleGroup(t, Max, typ,
		chunk.NullValue(typ),
		&chunk.Value{Typ: typ, I64: 3})
	assert.False(t, got.IsNull)
	assert.Equal(t, int64(3), got.I64)

	got = singleGroup(t, Min, typ,
		chunk.NullValue(typ),
		&chunk.Value{Typ: typ, I64: 3})
	assert.Equal(t, int64(3), got.I64)

	got = singleGroup(t, Max, typ,
		&chunk.Value{Typ: typ, I64: math.MinInt32})
	assert.False(t, got.IsNull)
	assert.Equal(t, int64(math.MinInt32), got.I64)
}

func Test_intervalMaxScenario(t *testing.T) {
	typ := common.IntervalType()
	got := singleGroup(t, Max, typ,
		&chunk.Value{Typ: typ, Interval: common.IntervalDay{Days: 1, Millis: 500}},
		&chunk.Value{Typ: typ, Interval: common.IntervalDay{Days: 0, Millis: 999999}})
	assert.False(t, got.IsNull)
	assert.Equal(t, common.IntervalDay{Days: 1, Millis: 500}, got.Interval)

	got = singleGroup(t, Min, typ,
		&chunk.Value{Typ: typ, Interval: common.IntervalDay{Days: 1, Millis: 500}},
		chunk.NullValue(typ),
		&chunk.Value{Typ: typ, Interval: common.IntervalDay{Days: 1, Millis: -500}})
	assert.Equal(t, common.IntervalDay{Days: 1, Millis: -500}, got.Interval)
}

func Test_bitScenarios(t *testing.T) {
	typ := common.BooleanType()
	got := singleGroup(t, Max, typ,
		chunk.NullValue(typ),
		&chunk.Value{Typ: typ, Bool: false},
		&chunk.Value{Typ: typ, Bool: true})
	assert.False(t, got.IsNull)
	assert.True(t, got.Bool)

	got = singleGroup(t, Max, typ,
		&chunk.Value{Typ: typ, Bool: false},
		chunk.NullValue(typ))
	assert.False(t, got.IsNull)
	assert.False(t, got.Bool)

	got = singleGroup(t, Min, typ,
		&chunk.Value{Typ: typ, Bool: true},
		chunk.NullValue(typ),
		&chunk.Value{Typ: typ, Bool: false})
	assert.False(t, got.IsNull)
	assert.False(t, got.Bool)

	got = singleGroup(t, Min, typ, chunk.NullValue(typ))
	assert.True(t, got.IsNull)
}

func Test_countIgnoresNulls(t *testing.T) {
	typ := common.DoubleType()
	vals := []*chunk.Value{
		chunk.NullValue(typ),
		{Typ: typ, F64: 1},
		chunk.NullValue(typ),
		{Typ: typ, F64: 2},
	}
	got := singleGroup(t, Count1, typ, vals...)
	assert.False(t, got.IsNull)
	assert.Equal(t, int64(4), got.I64)

	got = singleGroup(t, CountColumn, typ, vals...)
	assert.Equal(t, int64(2), got.I64)

	got = singleGroup(t, CountColumn, typ, chunk.NullValue(typ))
	assert.False(t, got.IsNull)
	assert.Equal(t, int64(0), got.I64)
}

func Test_count1WithoutInput(t *testing.T) {
	acc := newAcc(t, Count1, common.Null())
	require.NoError(t, acc.EnsureCapacity(3))
	acc.AccumulateNoSpill(nil, ordinal.Dense{3, 3, 1}, 3)
	got := transferValues(acc, 4)
	assert.True(t, got[0].IsNull)
	assert.Equal(t, int64(1), got[1].I64)
	assert.Equal(t, int64(2), got[3].I64)
}

func Test_allNullBatchIsNoop(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for _, typ := range testTypes {
		for _, kind := range []Kind{Min, Max, Sum} {
			if !Supported(kind, typ) {
				continue
			}
			acc := newAcc(t, kind, typ)
			runDense(t, acc, randRecords(r, typ, 200, 100, 0.3))
			before := snapshot(acc.Store())

			nulls := make([]record, 300)
			for i := range nulls {
				nulls[i] = record{ord: r.Intn(128), val: chunk.NullValue(typ)}
			}
			runDense(t, acc, nulls)
			runPacked(t, r, acc, ordinal.DefaultLayout, nulls)
			assert.Equal(t, before, snapshot(acc.Store()), "%v(%v)", kind, typ)
			acc.Close()
		}
	}
}

func Test_growthKeepsState(t *testing.T) {
	typ := common.BigintType()
	acc := newAcc(t, Max, typ)
	runDense(t, acc, []record{{ord: 3, val: &chunk.Value{Typ: typ, I64: 42}}})
	c0 := acc.Store().Chunk(0)
	ptr := c0.ValuesPtr()

	runDense(t, acc, []record{{ord: 1000, val: &chunk.Value{Typ: typ, I64: 1}}})
	assert.Equal(t, 16, acc.Store().ChunkCount())
	assert.Same(t, c0, acc.Store().Chunk(0))
	assert.Equal(t, ptr, acc.Store().Chunk(0).ValuesPtr())

	runDense(t, acc, []record{{ord: 3, val: &chunk.Value{Typ: typ, I64: 7}}})
	got := transferValues(acc, 1001)
	assert.Equal(t, int64(42), got[3].I64)
	assert.Equal(t, int64(1), got[1000].I64)
	assert.True(t, got[999].IsNull)
}

func Test_outOfMemoryIsRecoverable(t *testing.T) {
	alloc := util.NewBoundedAllocator("t", testCapacity*8+testCapacity/8)
	opts := testOptions()
	opts.Allocator = alloc
	acc, err := New(Sum, common.BigintType(), opts)
	require.NoError(t, err)
	require.NoError(t, acc.EnsureCapacity(63))
	err = acc.EnsureCapacity(64)
	require.ErrorIs(t, err, util.ErrOutOfMemory)
	assert.Equal(t, 1, acc.Store().ChunkCount())

	typ := common.BigintType()
	runDense(t, acc, []record{
		{ord: 10, val: &chunk.Value{Typ: typ, I64: 4}},
		{ord: 10, val: &chunk.Value{Typ: typ, I64: 5}},
	})
	got := transferValues(acc, 64)
	assert.Equal(t, int64(9), got[10].I64)
	assert.Equal(t, int64(0), alloc.Allocated())
}

func Test_stateMachine(t *testing.T) {
	typ := common.IntegerType()
	acc := newAcc(t, Max, typ)
	assert.Equal(t, StateUninitialized, acc.State())
	// nothing to do
	acc.AccumulateNoSpill(inputOf(typ, nil), nil, 0)
	assert.Panics(t, func() {
		acc.AccumulateNoSpill(inputOf(typ, []*chunk.Value{{Typ: typ}}), ordinal.Dense{0}, 1)
	})

	require.NoError(t, acc.EnsureCapacity(0))
	assert.Equal(t, StateInitialized, acc.State())
	assert.Panics(t, func() {
		acc.AccumulateNoSpill(inputOf(common.BigintType(), []*chunk.Value{{Typ: common.BigintType()}}), ordinal.Dense{0}, 1)
	})
	runDense(t, acc, []record{{ord: 0, val: &chunk.Value{Typ: typ, I64: 1}}})
	assert.Equal(t, StateAccumulating, acc.State())

	acc.Transfer(1)
	assert.Equal(t, StateTransferred, acc.State())
	assert.Panics(t, func() { _ = acc.EnsureCapacity(1) })
	assert.Panics(t, func() { acc.Transfer(1) })
	assert.Panics(t, func() { Reconstruct(acc) })
	acc.Close()
	assert.Equal(t, StateClosed, acc.State())
	assert.Panics(t, func() { acc.Close() })

	assert.Panics(t, func() { _, _ = New(Sum, common.BooleanType(), testOptions()) })
	assert.Panics(t, func() { _, _ = New(Max, common.Null(), testOptions()) })
}

// sentinel is the value a fresh Min or Max slot holds: the bound that
// loses against every input.
func sentinel(kind Kind, typ common.LType) *chunk.Value {
	upper := kind == Min
	ret := &chunk.Value{Typ: typ}
	switch typ.Id {
	case common.LTID_BOOLEAN:
		ret.Bool = upper
	case common.LTID_INTEGER:
		ret.I64 = math.MinInt32
		if upper {
			ret.I64 = math.MaxInt32
		}
	case common.LTID_BIGINT:
		ret.I64 = math.MinInt64
		if upper {
			ret.I64 = math.MaxInt64
		}
	case common.LTID_FLOAT:
		ret.F64 = -math.MaxFloat32
		if upper {
			ret.F64 = math.MaxFloat32
		}
	case common.LTID_DOUBLE:
		ret.F64 = -math.MaxFloat64
		if upper {
			ret.F64 = math.MaxFloat64
		}
	case common.LTID_INTERVAL:
		ret.Interval = common.MinIntervalDay
		if upper {
			ret.Interval = common.MaxIntervalDay
		}
	default:
		panic("usp")
	}
	return ret
}

func Test_untouchedSlotsHoldSentinel(t *testing.T) {
	for _, typ := range testTypes {
		for _, kind := range []Kind{Min, Max} {
			acc := newAcc(t, kind, typ)
			require.NoError(t, acc.EnsureCapacity(0))
			vec := acc.Transfer(1)[0]
			assert.True(t, vec.IsNull(0))
			vec.SetNull(0, false)
			want := sentinel(kind, acc.OutputType())
			got := vec.GetValue(0)
			assert.True(t, want.Equal(got), "%v(%v): %v != %v", kind, typ, want, got)
			acc.Close()
		}
	}
}

func Test_transfer(t *testing.T) {
	alloc := util.NewBoundedAllocator("t", 0)
	opts := testOptions()
	opts.Allocator = alloc
	acc, err := New(Max, common.DoubleType(), opts)
	require.NoError(t, err)
	require.NoError(t, acc.EnsureCapacity(200))
	assert.Equal(t, 4, acc.Store().ChunkCount())

	vecs := acc.Transfer(100)
	require.Len(t, vecs, 2)
	assert.Equal(t, testCapacity, vecs[0].Cap())
	assert.Equal(t, 36, vecs[1].Cap())
	assert.Equal(t, common.DoubleType(), vecs[1].Typ())
	assert.Equal(t, int64(0), alloc.Allocated())
	acc.Close()
}

func Test_closeReleases(t *testing.T) {
	alloc := util.NewBoundedAllocator("t", 0)
	opts := testOptions()
	opts.Allocator = alloc
	acc, err := New(Min, common.IntervalType(), opts)
	require.NoError(t, err)
	require.NoError(t, acc.EnsureCapacity(500))
	assert.Equal(t, int64(acc.Store().Allocated()), alloc.Allocated())
	acc.Close()
	assert.Equal(t, int64(0), alloc.Allocated())
}

func Test_format(t *testing.T) {
	acc := newAcc(t, Max, common.IntegerType())
	runDense(t, acc, []record{{ord: 70, val: &chunk.Value{Typ: common.IntegerType(), I64: 1}}})
	s := Format(acc)
	assert.Contains(t, s, "max(INTEGER)")
	assert.Contains(t, s, "accumulating")
	assert.Contains(t, s, "valid 1/64")
}

func Test_parseKind(t *testing.T) {
	for _, kind := range testKinds {
		got, err := ParseKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}
	got, err := ParseKind("count(*)")
	require.NoError(t, err)
	assert.Equal(t, Count1, got)
	_, err = ParseKind("avg")
	assert.Error(t, err)
}
