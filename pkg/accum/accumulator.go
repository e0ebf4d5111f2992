package accum

import (
	"fmt"

	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/ordinal"
	"github.com/daviszhen/vecagg/pkg/util"
)

type Kind int

const (
	// Count1 counts matched records.
	Count1 Kind = iota
	// CountColumn counts non-null values.
	CountColumn
	Sum
	Min
	Max
)

var kindToStr = map[Kind]string{
	Count1:      "count1",
	CountColumn: "count",
	Sum:         "sum",
	Min:         "min",
	Max:         "max",
}

func (k Kind) String() string {
	if s, has := kindToStr[k]; has {
		return s
	}
	panic(fmt.Sprintf("usp kind %d", int(k)))
}

func (k Kind) IsCount() bool {
	return k == Count1 || k == CountColumn
}

// ParseKind maps an aggregate name to its kind.
func ParseKind(name string) (Kind, error) {
	for k, s := range kindToStr {
		if s == name {
			return k, nil
		}
	}
	if name == "count(*)" {
		return Count1, nil
	}
	return Count1, fmt.Errorf("unknown aggregate %q", name)
}

type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateAccumulating
	StateTransferred
	StateReconstructed
	StateClosed
)

var stateToStr = map[State]string{
	StateUninitialized: "uninitialized",
	StateInitialized:   "initialized",
	StateAccumulating:  "accumulating",
	StateTransferred:   "transferred",
	StateReconstructed: "reconstructed",
	StateClosed:        "closed",
}

func (s State) String() string {
	if str, has := stateToStr[s]; has {
		return str
	}
	panic(fmt.Sprintf("usp state %d", int(s)))
}

// Accumulator folds input vectors into per-group state kept in a Store.
// An accumulator is used by one goroutine at a time. Inputs are read during
// the call only.
type Accumulator interface {
	Kind() Kind
	InputType() common.LType
	OutputType() common.LType
	State() State
	Store() *Store
	// EnsureCapacity makes ordinal addressable. The error wraps
	// util.ErrOutOfMemory when the allocator is exhausted.
	EnsureCapacity(ordinal int) error
	// Accumulate folds input rows routed by a packed mapping.
	Accumulate(input *chunk.Vector, mapping ordinal.Packed, count int)
	// AccumulateNoSpill folds input rows routed by a dense mapping. For the
	// same (ordinal, value, null) records it leaves the same chunk bytes as
	// Accumulate.
	AccumulateNoSpill(input *chunk.Vector, mapping ordinal.Dense, count int)
	// Transfer moves the first groups slots into output vectors.
	Transfer(groups int) []*chunk.Vector
	Close()
}

type binder func(input *chunk.Vector) func(ordinal, index int)

type accumBase struct {
	kind   Kind
	inTyp  common.LType
	outTyp common.LType
	state  State
	store  *Store
	layout ordinal.Layout
	guard  util.CallGuard
	// fill writes the initial values of a fresh chunk.
	fill func(*Chunk)
	bind binder
}

func (acc *accumBase) base() *accumBase {
	return acc
}

func (acc *accumBase) Kind() Kind {
	return acc.kind
}

func (acc *accumBase) InputType() common.LType {
	return acc.inTyp
}

func (acc *accumBase) OutputType() common.LType {
	return acc.outTyp
}

func (acc *accumBase) State() State {
	return acc.state
}

func (acc *accumBase) Store() *Store {
	return acc.store
}

// initialize is the store initializer: initial values and all slots null.
func (acc *accumBase) initialize(c *Chunk) {
	acc.fill(c)
	clear(c.Validity)
	if acc.state == StateUninitialized {
		acc.state = StateInitialized
	}
}

func (acc *accumBase) String() string {
	return fmt.Sprintf("%v(%v)", acc.kind, acc.inTyp)
}

func (acc *accumBase) mustBe(op string, states ...State) {
	for _, s := range states {
		if acc.state == s {
			return
		}
	}
	panic(fmt.Sprintf("%v: %s in state %v", acc, op, acc.state))
}

func (acc *accumBase) EnsureCapacity(ordinal int) error {
	acc.mustBe("ensure capacity", StateUninitialized, StateInitialized, StateAccumulating)
	return acc.store.EnsureCapacity(ordinal)
}

// begin validates an accumulate call. It reports false when there is
// nothing to do.
func (acc *accumBase) begin(input *chunk.Vector, count int) bool {
	if count == 0 {
		return false
	}
	acc.mustBe("accumulate", StateInitialized, StateAccumulating)
	if acc.kind != Count1 {
		if input == nil {
			panic(fmt.Sprintf("%v: nil input", acc))
		}
		if !input.Typ().Equal(acc.inTyp) {
			panic(fmt.Sprintf("%v: input of type %v", acc, input.Typ()))
		}
	}
	acc.state = StateAccumulating
	return true
}

func (acc *accumBase) Accumulate(input *chunk.Vector, mapping ordinal.Packed, count int) {
	if util.DebugChecks {
		acc.guard.Enter()
		defer acc.guard.Exit()
	}
	if !acc.begin(input, count) {
		return
	}
	mapping.Each(acc.layout, count, acc.bind(input))
}

func (acc *accumBase) AccumulateNoSpill(input *chunk.Vector, mapping ordinal.Dense, count int) {
	if util.DebugChecks {
		acc.guard.Enter()
		defer acc.guard.Exit()
	}
	if !acc.begin(input, count) {
		return
	}
	mapping.Each(count, acc.bind(input))
}

// Close releases the chunks unless they were handed to another owner.
func (acc *accumBase) Close() {
	if acc.state == StateClosed {
		panic(fmt.Sprintf("%v: close twice", acc))
	}
	switch acc.state {
	case StateTransferred, StateReconstructed:
	default:
		acc.store.Release()
	}
	acc.state = StateClosed
}

type baser interface {
	base() *accumBase
}

func baseOf(acc Accumulator) *accumBase {
	b, ok := acc.(baser)
	if !ok {
		panic(fmt.Sprintf("usp accumulator %T", acc))
	}
	return b.base()
}
