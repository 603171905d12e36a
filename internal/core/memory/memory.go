// Package memory is the raw allocator behind every collection in ecscore.
//
// Blocks are plain Go slices so the garbage collector stays in charge of
// reclamation, but ownership is explicit: whoever allocates a block frees it
// exactly once. With tracking enabled the allocator keeps a process-wide
// registry of outstanding blocks and reports double frees, foreign pointers
// and leaks. With tracking disabled every bookkeeping step is skipped.
package memory

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

var (
	ErrOutOfMemory       = errors.New("memory: out of memory")
	ErrAlreadyRegistered = errors.New("memory: pointer already registered")
	ErrNotRegistered     = errors.New("memory: pointer not registered")
	ErrNegativeBalance   = errors.New("memory: freed more bytes than were allocated")
	ErrLeaked            = errors.New("memory: block not freed")
)

// Alloc returns a block of exactly n elements. n == 0 yields the nil block.
func Alloc[T any](n int) []T {
	if n == 0 {
		return nil
	}
	size := byteSize[T](n)
	s := make([]T, n)
	if global.enabled.Load() {
		global.register(unsafe.Pointer(unsafe.SliceData(s)), size)
	}
	return s
}

// AllocZeroed returns a block of exactly n zero-valued elements.
func AllocZeroed[T any](n int) []T {
	// make always zeroes.
	return Alloc[T](n)
}

// Realloc resizes s to n elements, preserving the first min(len(s), n)
// elements. The returned block may be relocated; s must not be used again.
func Realloc[T any](s []T, n int) []T {
	if cap(s) == 0 {
		return Alloc[T](n)
	}
	if n == 0 {
		Free(s)
		return nil
	}
	size := byteSize[T](n)
	ns := make([]T, n)
	copy(ns, s)
	if global.enabled.Load() {
		global.deregister(unsafe.Pointer(unsafe.SliceData(s)), byteSize[T](cap(s)))
		global.register(unsafe.Pointer(unsafe.SliceData(ns)), size)
	}
	return ns
}

// Free releases a block returned by Alloc, AllocZeroed or Realloc.
// Freeing the nil block is a no-op.
func Free[T any](s []T) {
	if cap(s) == 0 {
		return
	}
	if global.enabled.Load() {
		global.deregister(unsafe.Pointer(unsafe.SliceData(s)), byteSize[T](cap(s)))
	}
}

// New allocates a single zero-valued T.
func New[T any]() *T {
	return &Alloc[T](1)[0]
}

// Release frees a value obtained from New. Releasing nil is a no-op.
func Release[T any](p *T) {
	if p == nil {
		return
	}
	Free(unsafe.Slice(p, 1))
}

func byteSize[T any](n int) uint64 {
	if n < 0 {
		panic(fmt.Errorf("%w: negative element count %d", ErrOutOfMemory, n))
	}
	var zero T
	elem := uint64(unsafe.Sizeof(zero))
	if elem != 0 && uint64(n) > math.MaxInt/elem {
		panic(fmt.Errorf("%w: %d elements of %d bytes", ErrOutOfMemory, n, elem))
	}
	return uint64(n) * elem
}
