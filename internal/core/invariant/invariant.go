// Package invariant gates the debug-only consistency checks of the entity
// index. Checks compile into every build but only fire while enabled, so
// release runs pay a single atomic load per check.
package invariant

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrViolated is the panic value (wrapped) of a failed check.
var ErrViolated = errors.New("invariant violated")

var enabled atomic.Bool

func init() {
	enabled.Store(defaultEnabled)
}

// Enabled reports whether checks are active.
func Enabled() bool { return enabled.Load() }

// SetEnabled turns checks on or off process-wide.
func SetEnabled(on bool) { enabled.Store(on) }

// Check panics with ErrViolated when checks are enabled and cond is false.
func Check(cond bool, msg string) {
	if !cond && enabled.Load() {
		panic(fmt.Errorf("%w: %s", ErrViolated, msg))
	}
}
