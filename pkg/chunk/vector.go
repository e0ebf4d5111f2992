package chunk

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/util"
)

// Vector is a flat column: a fixed-width (or bit-packed) value region and a
// validity mask. The mask is always materialized so consumers can read raw
// validity bits without a nil check.
type Vector struct {
	_Typ common.LType
	Data []byte
	Mask *util.Bitmap
	_Cap int
}

func NewFlatVector(typ common.LType, cap int) *Vector {
	vec := &Vector{
		_Typ: typ,
		Mask: &util.Bitmap{},
		_Cap: cap,
	}
	vec.Data = util.GAlloc.Alloc(typ.PTyp.DataBytes(cap))
	vec.Mask.Init(cap)
	return vec
}

// NewVectorFrom wraps existing value and validity regions without copying.
func NewVectorFrom(typ common.LType, cap int, data []byte, validity []byte) *Vector {
	util.AssertFunc(len(data) >= typ.PTyp.DataBytes(cap))
	util.AssertFunc(len(validity) >= util.EntryCount(cap))
	vec := &Vector{
		_Typ: typ,
		Data: data,
		Mask: &util.Bitmap{},
		_Cap: cap,
	}
	vec.Mask.Wrap(validity)
	return vec
}

func (vec *Vector) Typ() common.LType {
	return vec._Typ
}

func (vec *Vector) Cap() int {
	return vec._Cap
}

// Validity returns the raw validity bits, one per row, LSB first.
func (vec *Vector) Validity() []byte {
	return vec.Mask.Data()
}

func (vec *Vector) SetNull(idx int, null bool) {
	vec.Mask.Set(uint64(idx), !null)
}

func (vec *Vector) IsNull(idx int) bool {
	return !vec.Mask.RowIsValid(uint64(idx))
}

func (vec *Vector) checkTyp(id common.LTypeId) {
	if vec._Typ.Id != id {
		panic(fmt.Sprintf("vector of %v accessed as %v", vec._Typ.Id, id))
	}
}

func GetSlice[T any](vec *Vector) []T {
	sz := vec._Typ.PTyp.Size()
	util.AssertFunc(sz > 0)
	return util.ToSlice[T](vec.Data, sz)
}

func (vec *Vector) SetBool(idx int, v bool) {
	vec.checkTyp(common.LTID_BOOLEAN)
	ptr := util.BytesSliceToPointer(vec.Data)
	util.AndNotBit(ptr, idx, 1)
	if v {
		util.OrBit(ptr, idx, 1)
	}
}

func (vec *Vector) GetBool(idx int) bool {
	vec.checkTyp(common.LTID_BOOLEAN)
	return util.BitAt(util.BytesSliceToPointer(vec.Data), idx) == 1
}

func (vec *Vector) GetValue(idx int) *Value {
	if vec.IsNull(idx) {
		return &Value{
			Typ:    vec.Typ(),
			IsNull: true,
		}
	}
	ret := &Value{Typ: vec.Typ()}
	switch vec.Typ().Id {
	case common.LTID_INTEGER:
		ret.I64 = int64(GetSlice[int32](vec)[idx])
	case common.LTID_BIGINT:
		ret.I64 = GetSlice[int64](vec)[idx]
	case common.LTID_FLOAT:
		ret.F64 = float64(GetSlice[float32](vec)[idx])
	case common.LTID_DOUBLE:
		ret.F64 = GetSlice[float64](vec)[idx]
	case common.LTID_BOOLEAN:
		ret.Bool = vec.GetBool(idx)
	case common.LTID_DECIMAL:
		ret.Hugeint = GetSlice[common.Hugeint](vec)[idx]
	case common.LTID_INTERVAL:
		ret.Interval = GetSlice[common.IntervalDay](vec)[idx]
	default:
		panic(fmt.Sprintf("usp get value of %v", vec.Typ()))
	}
	return ret
}

func (vec *Vector) SetValue(idx int, val *Value) {
	if val.IsNull {
		vec.SetNull(idx, true)
		return
	}
	vec.SetNull(idx, false)
	switch vec.Typ().Id {
	case common.LTID_INTEGER:
		util.AssertFunc(val.I64 >= math.MinInt32 && val.I64 <= math.MaxInt32)
		GetSlice[int32](vec)[idx] = int32(val.I64)
	case common.LTID_BIGINT:
		GetSlice[int64](vec)[idx] = val.I64
	case common.LTID_FLOAT:
		GetSlice[float32](vec)[idx] = float32(val.F64)
	case common.LTID_DOUBLE:
		GetSlice[float64](vec)[idx] = val.F64
	case common.LTID_BOOLEAN:
		vec.SetBool(idx, val.Bool)
	case common.LTID_DECIMAL:
		GetSlice[common.Hugeint](vec)[idx] = val.Hugeint
	case common.LTID_INTERVAL:
		GetSlice[common.IntervalDay](vec)[idx] = val.Interval
	default:
		panic(fmt.Sprintf("usp set value of %v", vec.Typ()))
	}
}

func (vec *Vector) Print(rowCount int) {
	fields := make([]zap.Field, 0, rowCount)
	for j := 0; j < rowCount; j++ {
		fields = append(fields, zap.String("", vec.GetValue(j).String()))
	}
	util.Info(vec.Typ().String(), fields...)
}

func (vec *Vector) String(rowCount int) string {
	sb := strings.Builder{}
	sb.WriteString(vec.Typ().String())
	sb.WriteString("[")
	for j := 0; j < rowCount; j++ {
		if j > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(vec.GetValue(j).String())
	}
	sb.WriteString("]")
	return sb.String()
}
