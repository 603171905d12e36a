package ecs

import (
	"iter"

	"github.com/l1jgo/ecscore/internal/core/collections"
	"github.com/l1jgo/ecscore/internal/core/hash"
)

// Store is a typed component store keyed by entity id, backed by a
// collections.Map so its nodes are visible to allocation tracking.
type Store[T any] struct {
	data *collections.Map[Id, T]
}

// NewStore creates an empty store hashing ids with hash.Value.
func NewStore[T any]() *Store[T] {
	return &Store[T]{data: collections.NewMap[Id, T]()}
}

// NewStoreWithHasher is NewStore with a custom id hash.
func NewStoreWithHasher[T any](fn hash.Func[Id]) *Store[T] {
	return &Store[T]{data: collections.NewMapWithHasher[Id, T](fn)}
}

// RegisterStore creates a store and registers it with w, so deleting an
// entity clears its component and disposing w frees the store.
func RegisterStore[T any](w *World) *Store[T] {
	s := NewStore[T]()
	w.registry.Register(s)
	return s
}

// Set stores c for id, replacing any previous value.
func (s *Store[T]) Set(id Id, c T) {
	s.data.Remove(id)
	// cannot fail: the key was just removed
	_ = s.data.Add(id, c)
}

func (s *Store[T]) Get(id Id) (T, bool) {
	return s.data.TryGet(id)
}

func (s *Store[T]) Remove(id Id) {
	s.data.Remove(id)
}

func (s *Store[T]) Has(id Id) bool {
	return s.data.HasKey(id)
}

func (s *Store[T]) Len() int {
	return s.data.Count()
}

// All yields every (id, component) pair in bucket order.
func (s *Store[T]) All() iter.Seq2[Id, T] {
	return s.data.All()
}

// Dispose frees the underlying map. Calling it again is a no-op.
func (s *Store[T]) Dispose() {
	s.data.Dispose()
}
