package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/invariant"
	coresys "github.com/l1jgo/ecscore/internal/core/system"
)

// VerifySystem re-checks that every id in the live prefix resolves, every
// interval ticks. It does nothing while invariant checks are disabled.
type VerifySystem struct {
	world    *ecs.World
	log      *zap.Logger
	interval int
	tick     int
	err      error
}

func NewVerifySystem(world *ecs.World, log *zap.Logger, interval int) *VerifySystem {
	return &VerifySystem{world: world, log: log, interval: max(interval, 1)}
}

func (s *VerifySystem) Phase() coresys.Phase { return coresys.PhaseVerify }

// Err returns the first inconsistency found, if any.
func (s *VerifySystem) Err() error { return s.err }

func (s *VerifySystem) Update(_ time.Duration) {
	s.tick++
	if s.err != nil || !invariant.Enabled() || s.tick%s.interval != 0 {
		return
	}
	idx := s.world.Index()
	alive := idx.Alive()
	if len(alive) != idx.AliveCount()-1 {
		s.err = fmt.Errorf("tick %d: %d ids in live prefix, alive count %d", s.tick, len(alive), idx.AliveCount())
	}
	for _, id := range alive {
		if s.err != nil {
			break
		}
		if rec := idx.TryGet(id); rec == nil {
			s.err = fmt.Errorf("tick %d: live id %v does not resolve", s.tick, id)
		}
	}
	if s.err != nil {
		s.log.Error("index inconsistent", zap.Error(s.err))
	}
}
