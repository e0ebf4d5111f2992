package util

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrOutOfMemory is returned when an allocation would exceed the memory
// budget. Callers are expected to spill or abort.
var ErrOutOfMemory = errors.New("out of memory")

const (
	FaultAllocFail = "alloc.fail"
)

type BytesAllocator interface {
	Alloc(sz int) []byte
	Free([]byte)
}

// Allocator hands out zeroed byte regions and reports exhaustion as an error.
type Allocator interface {
	Alloc(sz int) ([]byte, error)
	Free([]byte)
	Allocated() int64
}

type DefaultAllocator struct {
}

func (alloc *DefaultAllocator) Alloc(sz int) []byte {
	return make([]byte, sz)
}

func (alloc *DefaultAllocator) Free(bytes []byte) {
}

var GAlloc BytesAllocator = &DefaultAllocator{}

// BoundedAllocator accounts every region it hands out against a fixed
// limit. A limit <= 0 means unbounded.
type BoundedAllocator struct {
	name      string
	limit     int64
	allocated atomic.Int64
	peak      atomic.Int64
	backing   BytesAllocator
}

func NewBoundedAllocator(name string, limit int64) *BoundedAllocator {
	return &BoundedAllocator{
		name:    name,
		limit:   limit,
		backing: GAlloc,
	}
}

func (alloc *BoundedAllocator) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		panic(fmt.Sprintf("negative allocation size %d", sz))
	}
	if fa := Check(FAULTS_SCOPE_ALLOC, FaultAllocFail); fa != nil {
		if err := fa.Action(fa.Args); err != nil {
			return nil, err
		}
	}
	n := alloc.allocated.Add(int64(sz))
	if alloc.limit > 0 && n > alloc.limit {
		alloc.allocated.Add(-int64(sz))
		return nil, fmt.Errorf("%s: request %d bytes, allocated %d, limit %d: %w",
			alloc.name, sz, n-int64(sz), alloc.limit, ErrOutOfMemory)
	}
	for {
		p := alloc.peak.Load()
		if n <= p || alloc.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return alloc.backing.Alloc(sz), nil
}

func (alloc *BoundedAllocator) Free(bytes []byte) {
	if bytes == nil {
		return
	}
	alloc.allocated.Add(-int64(cap(bytes)))
	alloc.backing.Free(bytes)
}

func (alloc *BoundedAllocator) Allocated() int64 {
	return alloc.allocated.Load()
}

func (alloc *BoundedAllocator) Peak() int64 {
	return alloc.peak.Load()
}

func (alloc *BoundedAllocator) Limit() int64 {
	return alloc.limit
}

var _ Allocator = (*BoundedAllocator)(nil)
