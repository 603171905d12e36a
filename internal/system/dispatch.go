package system

import (
	"time"

	"github.com/l1jgo/ecscore/internal/core/event"
	coresys "github.com/l1jgo/ecscore/internal/core/system"
)

// DispatchSystem delivers the previous tick's events at tick start.
type DispatchSystem struct {
	bus *event.Bus
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// Tally counts entity events for the report.
type Tally struct {
	Created int
	Queued  int
	Flushed int
}

// Subscribe hooks t to bus.
func (t *Tally) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(event.EntityCreated) { t.Created++ })
	event.Subscribe(bus, func(event.EntityQueued) { t.Queued++ })
	event.Subscribe(bus, func(e event.QueueFlushed) { t.Flushed += e.Deleted })
}
