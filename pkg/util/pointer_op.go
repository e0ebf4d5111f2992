package util

import (
	"fmt"
	"unsafe"
)

func Load[T any](ptr unsafe.Pointer, offset int) T {
	return *(*T)(PointerAdd(ptr, offset))
}

func ToSlice[T any](data []byte, pSize int) []T {
	slen := len(data) / pSize
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(data))), slen)
}

func BytesSliceToPointer(data []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(data))
}

func PointerAdd(base unsafe.Pointer, offset int) unsafe.Pointer {
	return unsafe.Add(base, offset)
}

func PointerToSlice[T any](base unsafe.Pointer, len int) []T {
	return unsafe.Slice((*T)(base), len)
}

// RawSlice is a typed view over a byte region. It keeps the region alive
// and indexes it with pointer arithmetic. Bounds are checked only when
// built with the vecaggdebug tag.
type RawSlice[T any] struct {
	ptr  unsafe.Pointer
	n    int
	size uintptr
}

func MakeRawSlice[T any](data []byte) RawSlice[T] {
	var zero T
	size := unsafe.Sizeof(zero)
	return RawSlice[T]{
		ptr:  BytesSliceToPointer(data),
		n:    len(data) / int(size),
		size: size,
	}
}

func (s RawSlice[T]) Len() int {
	return s.n
}

// At returns the i-th element.
func (s RawSlice[T]) At(i int) T {
	if DebugChecks {
		s.check(i)
	}
	return *(*T)(unsafe.Add(s.ptr, uintptr(i)*s.size))
}

// Ref returns a pointer to the i-th element.
func (s RawSlice[T]) Ref(i int) *T {
	if DebugChecks {
		s.check(i)
	}
	return (*T)(unsafe.Add(s.ptr, uintptr(i)*s.size))
}

func (s RawSlice[T]) Set(i int, v T) {
	if DebugChecks {
		s.check(i)
	}
	*(*T)(unsafe.Add(s.ptr, uintptr(i)*s.size)) = v
}

func (s RawSlice[T]) check(i int) {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("raw slice index %d out of range [0,%d)", i, s.n))
	}
}
