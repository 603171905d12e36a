package system

import (
	"time"

	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/event"
	coresys "github.com/l1jgo/ecscore/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
type CleanupSystem struct {
	world   *ecs.World
	bus     *event.Bus
	worldID int
}

func NewCleanupSystem(world *ecs.World, bus *event.Bus, worldID int) *CleanupSystem {
	return &CleanupSystem{world: world, bus: bus, worldID: worldID}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	n := s.world.FlushDestroyQueue()
	event.Emit(s.bus, event.QueueFlushed{Deleted: n, World: s.worldID})
}
