package common

import (
	"math"
	"math/big"
)

// Hugeint is a 128-bit two's complement integer laid out little endian,
// the payload of a DECIMAL value.
type Hugeint struct {
	Lower uint64
	Upper int64
}

func HugeintFromInt64(v int64) Hugeint {
	ret := Hugeint{Lower: uint64(v)}
	if v < 0 {
		ret.Upper = -1
	}
	return ret
}

func (h Hugeint) String() string {
	return h.BigInt().String()
}

func (h *Hugeint) Equal(o *Hugeint) bool {
	return h.Lower == o.Lower && h.Upper == o.Upper
}

// Int64 narrows h when it fits.
func (h Hugeint) Int64() (int64, bool) {
	v := int64(h.Lower)
	if (h.Upper == 0 && v >= 0) || (h.Upper == -1 && v < 0) {
		return v, true
	}
	return 0, false
}

func (h Hugeint) BigInt() *big.Int {
	ret := big.NewInt(h.Upper)
	ret.Lsh(ret, 64)
	ret.Add(ret, new(big.Int).SetUint64(h.Lower))
	return ret
}

// Float64 approximates h. Values outside int64 may round twice.
func (h Hugeint) Float64() float64 {
	if v, ok := h.Int64(); ok {
		return float64(v)
	}
	if h.Upper < 0 {
		if h.Upper == math.MinInt64 && h.Lower == 0 {
			return -math.Exp2(127)
		}
		var neg Hugeint
		NegateHugeint(&h, &neg)
		return -neg.Float64()
	}
	return float64(h.Upper)*math.Exp2(64) + float64(h.Lower)
}

func NegateHugeint(input *Hugeint, result *Hugeint) {
	if input.Upper == math.MinInt64 && input.Lower == 0 {
		panic("-hugeint overflow")
	}
	result.Lower = math.MaxUint64 - input.Lower + 1
	if input.Lower == 0 {
		result.Upper = -1 - input.Upper + 1
	} else {
		result.Upper = -1 - input.Upper
	}
}
