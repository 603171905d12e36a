package collections

import "github.com/l1jgo/ecscore/internal/core/memory"

const defaultCapacity = 4

// Vec is a growable buffer with separate capacity and count. Growth goes
// through memory.Realloc, so pointers from Ptr are invalidated by any call
// that may grow the buffer.
type Vec[T any] struct {
	data  []T // len(data) is the capacity
	count int
}

// NewVec allocates a Vec with the given capacity (defaultCapacity if 0).
func NewVec[T any](capacity int) Vec[T] {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	return Vec[T]{data: memory.Alloc[T](capacity)}
}

// NewVecZeroed is NewVec with zero-filled storage.
func NewVecZeroed[T any](capacity int) Vec[T] {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	return Vec[T]{data: memory.AllocZeroed[T](capacity)}
}

func (v *Vec[T]) Len() int       { return v.count }
func (v *Vec[T]) Cap() int       { return len(v.data) }
func (v *Vec[T]) IsNil() bool    { return v.data == nil }
func (v *Vec[T]) At(i int) T     { return v.data[i] }
func (v *Vec[T]) Set(i int, x T) { v.data[i] = x }
func (v *Vec[T]) Ptr(i int) *T   { return &v.data[i] }

// Slice returns the first Len elements. It is invalidated by growth.
func (v *Vec[T]) Slice() []T { return v.data[:v.count] }

// Append adds item at the end, doubling the capacity when full.
func (v *Vec[T]) Append(item T) {
	if v.count >= len(v.data) {
		v.EnsureCapacity(max(len(v.data)*2, defaultCapacity), false)
	}
	v.data[v.count] = item
	v.count++
}

// EnsureCapacity grows the buffer to hold at least n elements. It is a no-op
// when n does not exceed the current capacity. With zeroFill every slot from
// Len to the new capacity is cleared.
func (v *Vec[T]) EnsureCapacity(n int, zeroFill bool) {
	if n <= len(v.data) {
		return
	}
	v.data = memory.Realloc(v.data, n)
	if zeroFill {
		clear(v.data[v.count:])
	}
}

// SetMinCount raises Len to n, growing the capacity as needed. Slots exposed
// this way hold whatever the buffer held, or zero with zeroFill on growth.
// It never lowers Len.
func (v *Vec[T]) SetMinCount(n int, zeroFill bool) {
	if v.count > n {
		return
	}
	v.EnsureCapacity(n, zeroFill)
	v.count = n
}

// Clear sets Len to 0 and keeps the buffer.
func (v *Vec[T]) Clear() { v.count = 0 }

// Dispose frees the buffer. Calling it again is a no-op.
func (v *Vec[T]) Dispose() {
	if v.data == nil {
		return
	}
	memory.Free(v.data)
	v.data = nil
	v.count = 0
}
