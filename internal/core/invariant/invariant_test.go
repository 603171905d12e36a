package invariant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	prev := Enabled()
	t.Cleanup(func() { SetEnabled(prev) })

	SetEnabled(false)
	assert.NotPanics(t, func() { Check(false, "ignored while disabled") })

	SetEnabled(true)
	assert.NotPanics(t, func() { Check(true, "holds") })

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrViolated) {
			t.Fatalf("expected ErrViolated panic, got %v", r)
		}
		assert.Contains(t, err.Error(), "dense index out of range")
	}()
	Check(false, "dense index out of range")
}
