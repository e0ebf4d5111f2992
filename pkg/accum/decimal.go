package accum

import (
	"github.com/daviszhen/vecagg/pkg/common"
)

// Decimal inputs are reduced to float64 slots. Values beyond 53 bits of
// precision are rounded; post-spill merges read the slots as DOUBLE.

func maxDecimal(scale int) combineFunc[common.Hugeint, float64] {
	return func(slot *float64, in common.Hugeint, valid uint8) {
		if valid == 1 {
			*slot = max(*slot, common.DecimalToFloat64(in, scale))
		}
	}
}

func minDecimal(scale int) combineFunc[common.Hugeint, float64] {
	return func(slot *float64, in common.Hugeint, valid uint8) {
		if valid == 1 {
			*slot = min(*slot, common.DecimalToFloat64(in, scale))
		}
	}
}

func sumDecimal(scale int) combineFunc[common.Hugeint, float64] {
	return func(slot *float64, in common.Hugeint, valid uint8) {
		if valid == 1 {
			*slot += common.DecimalToFloat64(in, scale)
		}
	}
}
