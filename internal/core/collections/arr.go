// Package collections holds the allocator-backed containers the entity index
// is built from: a fixed-size Arr, a growable Vec and a chained hash Map.
//
// None of them lock. An instance must be mutated by one goroutine at a time.
package collections

import "github.com/l1jgo/ecscore/internal/core/memory"

// Arr is a fixed-size owned buffer. The zero value is the disposed (nil)
// buffer.
type Arr[T any] struct {
	data []T
}

func NewArr[T any](n int) Arr[T] {
	return Arr[T]{data: memory.Alloc[T](n)}
}

func NewArrZeroed[T any](n int) Arr[T] {
	return Arr[T]{data: memory.AllocZeroed[T](n)}
}

func (a *Arr[T]) Len() int       { return len(a.data) }
func (a *Arr[T]) IsNil() bool    { return a.data == nil }
func (a *Arr[T]) At(i int) T     { return a.data[i] }
func (a *Arr[T]) Set(i int, v T) { a.data[i] = v }
func (a *Arr[T]) Ptr(i int) *T   { return &a.data[i] }

// Slice exposes the backing storage. It is invalid after Dispose.
func (a *Arr[T]) Slice() []T { return a.data }

// Dispose frees the buffer. Calling it again is a no-op.
func (a *Arr[T]) Dispose() {
	if a.data == nil {
		return
	}
	memory.Free(a.data)
	a.data = nil
}
