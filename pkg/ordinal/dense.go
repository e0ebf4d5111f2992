package ordinal

import "fmt"

// Dense is the no-spill mapping. Record i reads input row i.
type Dense []int32

func (d Dense) Each(count int, fn func(ordinal, index int)) {
	for i, ord := range d[:count] {
		fn(int(ord), i)
	}
}

// ToDense converts a packed mapping whose source index equals its position.
func ToDense(l Layout, p Packed) Dense {
	ret := make(Dense, len(p))
	for i, word := range p {
		if l.Index(word) != i {
			panic(fmt.Sprintf("record %d reads row %d", i, l.Index(word)))
		}
		ret[i] = int32(l.Ordinal(word))
	}
	return ret
}
