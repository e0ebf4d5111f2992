package common

import "fmt"

// PhyType is the in-memory layout of a logical type.
type PhyType int

const (
	NA       PhyType = 0
	INT32    PhyType = 7
	INT64    PhyType = 9
	FLOAT    PhyType = 11
	DOUBLE   PhyType = 12
	INTERVAL PhyType = 21
	INT128   PhyType = 204
	BIT      PhyType = 206
	INVALID  PhyType = 255
)

const (
	Int32Size    = 4
	Int64Size    = 8
	Float32Size  = 4
	Float64Size  = 8
	IntervalSize = 8
	Int128Size   = 16
)

var pTypeToStr = map[PhyType]string{
	NA:       "NA",
	INT32:    "INT32",
	INT64:    "INT64",
	FLOAT:    "FLOAT",
	DOUBLE:   "DOUBLE",
	INTERVAL: "INTERVAL",
	INT128:   "INT128",
	BIT:      "BIT",
	INVALID:  "INVALID",
}

func (pt PhyType) String() string {
	if s, has := pTypeToStr[pt]; has {
		return s
	}
	panic(fmt.Sprintf("usp %d", pt))
}

// Size is the byte width of one value. BIT is packed, eight values per
// byte, and reports 0.
func (pt PhyType) Size() int {
	switch pt {
	case BIT:
		return 0
	case INT32:
		return Int32Size
	case INT64:
		return Int64Size
	case FLOAT:
		return Float32Size
	case DOUBLE:
		return Float64Size
	case INTERVAL:
		return IntervalSize
	case INT128:
		return Int128Size
	default:
		panic(fmt.Sprintf("usp size of %v", pt))
	}
}

func (pt PhyType) IsBitPacked() bool {
	return pt == BIT
}

// DataBytes is the size of the value region holding cnt values.
func (pt PhyType) DataBytes(cnt int) int {
	if pt.IsBitPacked() {
		return (cnt + 7) / 8
	}
	return pt.Size() * cnt
}
