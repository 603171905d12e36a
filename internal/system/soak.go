package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/ecscore/internal/config"
	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/event"
	coresys "github.com/l1jgo/ecscore/internal/core/system"
	"github.com/l1jgo/ecscore/internal/scripting"
)

// tickRate is the nominal dt passed to systems; nothing sleeps on it.
const tickRate = 200 * time.Millisecond

// Soak runs the churn tick loop on one world.
type Soak struct {
	runner *coresys.Runner
	bus    *event.Bus
	tally  Tally
	script *ScriptSystem
	verify *VerifySystem
}

// NewSoak wires dispatch, churn, cleanup and verify systems for world, plus
// the Lua hook when engine is not nil.
func NewSoak(world *ecs.World, engine *scripting.Engine, cfg config.SoakConfig, worldID int, log *zap.Logger) *Soak {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Soak{
		runner: coresys.NewRunner(),
		bus:    event.NewBus(),
		verify: NewVerifySystem(world, log, 16),
	}
	s.tally.Subscribe(s.bus)

	s.runner.Register(NewDispatchSystem(s.bus))
	s.runner.Register(NewChurnSystem(world, s.bus, worldID, cfg.SpawnPerTick, cfg.DeleteRatio, cfg.Seed))
	if engine != nil {
		s.script = NewScriptSystem(engine, log)
		s.runner.Register(s.script)
	}
	s.runner.Register(s.verify)
	s.runner.Register(NewCleanupSystem(world, s.bus, worldID))
	return s
}

// Run executes ticks full ticks and one trailing dispatch so the last
// tick's events are counted.
func (s *Soak) Run(ticks int) error {
	for i := 0; i < ticks; i++ {
		s.runner.Tick(tickRate)
	}
	s.runner.TickPhase(coresys.PhaseDispatch, 0)

	if err := s.verify.Err(); err != nil {
		return err
	}
	if s.script != nil && s.script.Errors() > 0 {
		return fmt.Errorf("%d lua on_tick calls failed", s.script.Errors())
	}
	return nil
}

func (s *Soak) Ticks() uint64 { return s.runner.Ticks() }
func (s *Soak) Tally() Tally  { return s.tally }
