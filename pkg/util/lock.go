package util

import (
	"fmt"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// CallGuard detects two goroutines inside the same single-threaded object.
// It is not a lock: the second goroutine panics instead of waiting.
type CallGuard struct {
	owner atomic.Int64
	depth int
}

func (guard *CallGuard) Enter() {
	rid := goid.Get()
	if guard.owner.CompareAndSwap(0, rid) {
		guard.depth = 1
		return
	}
	if cur := guard.owner.Load(); cur != rid {
		panic(fmt.Sprintf("concurrent use: goroutine %d entered while %d is inside", rid, cur))
	}
	guard.depth++
}

func (guard *CallGuard) Exit() {
	rid := goid.Get()
	if guard.owner.Load() != rid || guard.depth == 0 {
		panic("exit of a call guard not entered by this goroutine")
	}
	guard.depth--
	if guard.depth == 0 {
		guard.owner.Store(0)
	}
}
