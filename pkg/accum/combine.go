package accum

import (
	"golang.org/x/exp/constraints"
)

// The integer rules replace a null input with the identity of the
// operation through a 0/1 mask instead of branching:
//
//	in = in*valid + identity*(valid^1)

func maxInt[T constraints.Integer](identity T) combineFunc[T, T] {
	return func(slot *T, in T, valid uint8) {
		v := T(valid)
		in = in*v + identity*(v^1)
		*slot = max(*slot, in)
	}
}

func minInt[T constraints.Integer](identity T) combineFunc[T, T] {
	return func(slot *T, in T, valid uint8) {
		v := T(valid)
		in = in*v + identity*(v^1)
		*slot = min(*slot, in)
	}
}

// Multiplying a float by zero keeps NaN and infinities, so the float rules
// test the bit.

func maxFloat[T constraints.Float](slot *T, in T, valid uint8) {
	if valid == 1 {
		*slot = max(*slot, in)
	}
}

func minFloat[T constraints.Float](slot *T, in T, valid uint8) {
	if valid == 1 {
		*slot = min(*slot, in)
	}
}

func sumInt[I constraints.Integer](slot *int64, in I, valid uint8) {
	*slot += int64(in) * int64(valid)
}

func sumFloat[I constraints.Float](slot *float64, in I, valid uint8) {
	if valid == 1 {
		*slot += float64(in)
	}
}
