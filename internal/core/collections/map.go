package collections

import (
	"errors"
	"iter"

	"github.com/l1jgo/ecscore/internal/core/hash"
	"github.com/l1jgo/ecscore/internal/core/memory"
)

const (
	// LoadFactor is the count/buckets ratio at which the next Add doubles
	// the bucket array first.
	LoadFactor = 0.70

	initialBuckets = 4
)

var (
	ErrDuplicateKey = errors.New("collections: key already exists")
	ErrKeyNotFound  = errors.New("collections: key does not exist")
)

type node[K comparable, V any] struct {
	hash  uint64
	next  *node[K, V]
	key   K
	value V
}

// Map is a separately chained hash table over fixed-size comparable keys.
// Chain nodes and the bucket array come from the memory package and are
// released by Remove, Resize and Dispose.
type Map[K comparable, V any] struct {
	buckets Arr[*node[K, V]]
	count   int
	hasher  hash.Func[K]
}

// NewMap creates a map with 4 buckets hashing keys with hash.Value.
func NewMap[K comparable, V any]() *Map[K, V] {
	return NewMapWithHasher[K, V](hash.Value[K])
}

// NewMapWithHasher creates a map with 4 buckets hashing keys with fn.
func NewMapWithHasher[K comparable, V any](fn hash.Func[K]) *Map[K, V] {
	return &Map[K, V]{
		buckets: NewArrZeroed[*node[K, V]](initialBuckets),
		hasher:  fn,
	}
}

func (m *Map[K, V]) Count() int   { return m.count }
func (m *Map[K, V]) Buckets() int { return m.buckets.Len() }
func (m *Map[K, V]) IsNil() bool  { return m.buckets.IsNil() }

// Add inserts key. A duplicate key returns ErrDuplicateKey and leaves the
// map untouched, bucket array included.
func (m *Map[K, V]) Add(key K, value V) error {
	h := m.hasher(key)
	if m.find(h, key) != nil {
		return ErrDuplicateKey
	}
	if float64(m.count)/float64(m.buckets.Len()) >= LoadFactor {
		m.Resize(m.buckets.Len() * 2)
	}

	n := memory.New[node[K, V]]()
	n.hash = h
	n.key = key
	n.value = value
	link(&m.buckets, n)
	m.count++
	return nil
}

// Get returns the value stored for key or ErrKeyNotFound.
func (m *Map[K, V]) Get(key K) (V, error) {
	if n := m.find(m.hasher(key), key); n != nil {
		return n.value, nil
	}
	var zero V
	return zero, ErrKeyNotFound
}

// TryGet is Get with a boolean instead of an error.
func (m *Map[K, V]) TryGet(key K) (V, bool) {
	if n := m.find(m.hasher(key), key); n != nil {
		return n.value, true
	}
	var zero V
	return zero, false
}

// MustGet is Get for callers that know key is present. It panics otherwise.
func (m *Map[K, V]) MustGet(key K) V {
	v, err := m.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

func (m *Map[K, V]) HasKey(key K) bool {
	return m.find(m.hasher(key), key) != nil
}

// Remove unlinks and frees the node for key. Absent keys are ignored.
func (m *Map[K, V]) Remove(key K) {
	h := m.hasher(key)
	head := m.buckets.Ptr(int(h % uint64(m.buckets.Len())))

	var prev *node[K, V]
	for n := *head; n != nil; prev, n = n, n.next {
		if n.key != key {
			continue
		}
		if prev == nil {
			*head = n.next
		} else {
			prev.next = n.next
		}
		memory.Release(n)
		m.count--
		return
	}
}

// Resize rehashes every node into a new array of size buckets. Stored hashes
// are reused, so keys are not hashed again, and since keys are already unique
// no duplicate check is done.
func (m *Map[K, V]) Resize(size int) {
	next := NewArrZeroed[*node[K, V]](size)
	for i := 0; i < m.buckets.Len(); i++ {
		n := m.buckets.At(i)
		for n != nil {
			following := n.next
			n.next = nil
			link(&next, n)
			n = following
		}
	}
	m.buckets.Dispose()
	m.buckets = next
}

// All yields every entry. The map must not be modified during iteration.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := 0; i < m.buckets.Len(); i++ {
			for n := m.buckets.At(i); n != nil; n = n.next {
				if !yield(n.key, n.value) {
					return
				}
			}
		}
	}
}

// Dispose frees every node and then the bucket array. Calling it again is a
// no-op.
func (m *Map[K, V]) Dispose() {
	if m.buckets.IsNil() {
		return
	}
	for i := 0; i < m.buckets.Len(); i++ {
		n := m.buckets.At(i)
		for n != nil {
			following := n.next
			memory.Release(n)
			n = following
		}
	}
	m.buckets.Dispose()
	m.count = 0
}

func (m *Map[K, V]) find(h uint64, key K) *node[K, V] {
	for n := m.buckets.At(int(h % uint64(m.buckets.Len()))); n != nil; n = n.next {
		if n.key == key {
			return n
		}
	}
	return nil
}

// link appends n to the tail of its chain in buckets.
func link[K comparable, V any](buckets *Arr[*node[K, V]], n *node[K, V]) {
	slot := buckets.Ptr(int(n.hash % uint64(buckets.Len())))
	for *slot != nil {
		slot = &(*slot).next
	}
	*slot = n
}
