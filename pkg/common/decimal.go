package common

import (
	"math"
	"strconv"

	"github.com/govalues/decimal"
)

// DecimalToFloat64 approximates an unscaled 128-bit decimal with the given
// scale as a double. Precision beyond 53 bits is lost.
func DecimalToFloat64(h Hugeint, scale int) float64 {
	if v, ok := h.Int64(); ok && scale >= 0 && scale <= decimal.MaxScale {
		if d, err := decimal.New(v, scale); err == nil {
			if f, ok := d.Float64(); ok {
				return f
			}
		}
	}
	return h.Float64() / math.Pow10(scale)
}

// DecimalString renders an unscaled decimal.
func DecimalString(h Hugeint, scale int) string {
	if v, ok := h.Int64(); ok && scale >= 0 && scale <= decimal.MaxScale {
		if d, err := decimal.New(v, scale); err == nil {
			return d.String()
		}
	}
	return h.String() + "e-" + strconv.Itoa(scale)
}
