package system

import "time"

// Phase orders systems within a tick. Lower phases run first.
type Phase int

const (
	PhaseDispatch Phase = iota // deliver last tick's events
	PhaseUpdate                // spawn, churn, scripts
	PhaseVerify                // consistency and leak probes
	PhaseCleanup               // flush the destroy queue
)

func (p Phase) String() string {
	switch p {
	case PhaseDispatch:
		return "dispatch"
	case PhaseUpdate:
		return "update"
	case PhaseVerify:
		return "verify"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick participant implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
