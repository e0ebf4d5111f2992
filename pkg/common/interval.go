package common

import (
	"fmt"
	"math"
)

// IntervalDay is a day-time interval. Days occupy the first four bytes and
// millis the next four, so the pair packs into one little endian int64 with
// days in the low half.
type IntervalDay struct {
	Days   int32
	Millis int32
}

var (
	MinIntervalDay = IntervalDay{Days: math.MinInt32, Millis: math.MinInt32}
	MaxIntervalDay = IntervalDay{Days: math.MaxInt32, Millis: math.MaxInt32}
)

func (i IntervalDay) String() string {
	return fmt.Sprintf("%dd %dms", i.Days, i.Millis)
}

func (i *IntervalDay) Equal(o *IntervalDay) bool {
	return i.Days == o.Days && i.Millis == o.Millis
}

// Key maps the pair onto an int64 whose signed order is the interval order:
// days in the high half, millis with the sign bit flipped in the low half.
// MinIntervalDay maps to MinInt64 and MaxIntervalDay to MaxInt64.
func (i IntervalDay) Key() int64 {
	return int64(i.Days)<<32 | int64(uint32(i.Millis)^(1<<31))
}

func (i IntervalDay) Compare(o IntervalDay) int {
	a, b := i.Key(), o.Key()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
