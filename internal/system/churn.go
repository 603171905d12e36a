package system

import (
	"math/rand/v2"
	"time"

	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/event"
	coresys "github.com/l1jgo/ecscore/internal/core/system"
)

// ChurnSystem spawns a fixed number of entities each tick and queues a
// random share of the live ones for destruction.
type ChurnSystem struct {
	world   *ecs.World
	bus     *event.Bus
	rng     *rand.Rand
	spawn   int
	ratio   float64
	worldID int
}

func NewChurnSystem(world *ecs.World, bus *event.Bus, worldID, spawn int, ratio float64, seed uint64) *ChurnSystem {
	return &ChurnSystem{
		world:   world,
		bus:     bus,
		rng:     rand.New(rand.NewPCG(seed, uint64(worldID))),
		spawn:   spawn,
		ratio:   ratio,
		worldID: worldID,
	}
}

func (s *ChurnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ChurnSystem) Update(_ time.Duration) {
	for i := 0; i < s.spawn; i++ {
		id := s.world.CreateEntity()
		event.Emit(s.bus, event.EntityCreated{Id: id, World: s.worldID})
	}

	alive := s.world.Index().Alive()
	n := int(float64(len(alive)) * s.ratio)
	s.rng.Shuffle(len(alive), func(i, j int) { alive[i], alive[j] = alive[j], alive[i] })
	for _, id := range alive[:n] {
		s.world.MarkForDestruction(id)
		event.Emit(s.bus, event.EntityQueued{Id: id, World: s.worldID})
	}
}
