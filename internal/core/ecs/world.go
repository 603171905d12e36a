package ecs

import "github.com/l1jgo/ecscore/internal/core/collections"

// World is the top-level ECS container. It owns the entity index, the
// component registry, and a deferred destruction queue.
type World struct {
	index        *EntityIndex
	registry     *Registry
	destroyQueue collections.Vec[Id]
}

func NewWorld() *World {
	return NewWorldWithCapacity(1)
}

// NewWorldWithCapacity presizes the entity index's dense array.
func NewWorldWithCapacity(capacity int) *World {
	return &World{
		index:        NewEntityIndexWithCapacity(capacity),
		registry:     NewRegistry(),
		destroyQueue: collections.NewVec[Id](64),
	}
}

func (w *World) Index() *EntityIndex { return w.index }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() Id {
	return w.index.NewId()
}

// Entity creates an entity and returns a handle bound to w.
func (w *World) Entity() Entity {
	return Entity{world: w, id: w.index.NewId()}
}

// Handle wraps an existing id without checking it.
func (w *World) Handle(id Id) Entity {
	return Entity{world: w, id: id}
}

func (w *World) Alive(id Id) bool {
	return w.index.IsAlive(id)
}

// DeleteEntity clears id's components and frees its slot. Stale or unknown
// ids are ignored.
func (w *World) DeleteEntity(id Id) {
	if !w.index.IsAlive(id) {
		return
	}
	w.registry.RemoveAll(id)
	w.index.Delete(id)
}

// MarkForDestruction queues an entity for deletion at the next flush.
func (w *World) MarkForDestruction(id Id) {
	w.destroyQueue.Append(id)
}

// FlushDestroyQueue deletes all queued entities. Ids queued twice or already
// dead are skipped.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue.Slice() {
		if w.index.IsAlive(id) {
			w.DeleteEntity(id)
			n++
		}
	}
	w.destroyQueue.Clear()
	return n
}

// Dispose frees every store, the queue and the index. Calling it again is a
// no-op.
func (w *World) Dispose() {
	w.registry.Dispose()
	w.destroyQueue.Dispose()
	w.index.Dispose()
}
