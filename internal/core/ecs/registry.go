package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on delete and free every
// store with the world.
type Removable interface {
	Remove(id Id)
	Dispose()
}

// Registry tracks all component stores of a world.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 16),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

func (r *Registry) Len() int { return len(r.stores) }

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id Id) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}

// Dispose frees every registered store and forgets them.
func (r *Registry) Dispose() {
	for _, s := range r.stores {
		s.Dispose()
	}
	r.stores = r.stores[:0]
}
