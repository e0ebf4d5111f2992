package chunk

import (
	"fmt"
	"math"

	"github.com/daviszhen/vecagg/pkg/common"
)

type Value struct {
	Typ    common.LType
	IsNull bool
	//value
	Bool     bool
	I64      int64
	F64      float64
	Hugeint  common.Hugeint
	Interval common.IntervalDay
}

func NullValue(typ common.LType) *Value {
	return &Value{Typ: typ, IsNull: true}
}

func (val Value) String() string {
	if val.IsNull {
		return "NULL"
	}
	switch val.Typ.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT:
		return fmt.Sprintf("%d", val.I64)
	case common.LTID_BOOLEAN:
		return fmt.Sprintf("%v", val.Bool)
	case common.LTID_DECIMAL:
		return common.DecimalString(val.Hugeint, val.Typ.Scale)
	case common.LTID_DOUBLE, common.LTID_FLOAT:
		return fmt.Sprintf("%v", val.F64)
	case common.LTID_INTERVAL:
		return val.Interval.String()
	default:
		panic("usp")
	}
}

// Equal compares two values of the same type. Nulls are equal to each other.
func (val *Value) Equal(o *Value) bool {
	if val.IsNull || o.IsNull {
		return val.IsNull == o.IsNull
	}
	if val.Typ.Id != o.Typ.Id {
		return false
	}
	switch val.Typ.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT:
		return val.I64 == o.I64
	case common.LTID_BOOLEAN:
		return val.Bool == o.Bool
	case common.LTID_DECIMAL:
		return val.Hugeint.Equal(&o.Hugeint)
	case common.LTID_DOUBLE, common.LTID_FLOAT:
		return val.F64 == o.F64 || (math.IsNaN(val.F64) && math.IsNaN(o.F64))
	case common.LTID_INTERVAL:
		return val.Interval.Equal(&o.Interval)
	default:
		panic("usp")
	}
}
