package event

import "github.com/l1jgo/ecscore/internal/core/ecs"

// EntityCreated is emitted when a system creates an entity.
type EntityCreated struct {
	Id    ecs.Id
	World int
}

// EntityQueued is emitted when an entity is marked for destruction.
type EntityQueued struct {
	Id    ecs.Id
	World int
}

// QueueFlushed is emitted after the destroy queue is flushed.
type QueueFlushed struct {
	Deleted int
	World   int
}
