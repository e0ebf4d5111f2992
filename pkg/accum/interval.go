package accum

import (
	"math"

	"github.com/daviszhen/vecagg/pkg/common"
)

// Intervals compare by IntervalDay.Key: days first, then millis. A null
// input is masked to the key that never wins.

func maxInterval(slot *common.IntervalDay, in common.IntervalDay, valid uint8) {
	v := int64(valid)
	key := in.Key()*v + math.MinInt64*(v^1)
	if key > slot.Key() {
		*slot = in
	}
}

func minInterval(slot *common.IntervalDay, in common.IntervalDay, valid uint8) {
	v := int64(valid)
	key := in.Key()*v + math.MaxInt64*(v^1)
	if key < slot.Key() {
		*slot = in
	}
}
