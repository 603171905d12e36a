package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/multierr"

	"github.com/l1jgo/ecscore/internal/core/memory"
	"github.com/l1jgo/ecscore/internal/scenario"
)

func sample() *Summary {
	return &Summary{
		Worlds: []World{{
			World:     0,
			Scenarios: []scenario.Result{{Name: "recycle", Steps: 6, Created: 2, Deleted: 1}},
			Scripts:   []string{"scripts/churn.lua"},
			Ticks:     10,
			Created:   2560,
			Queued:    640,
			Flushed:   600,
			Alive:     1960,
		}},
		Tracking: true,
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := sample()
	var buf bytes.Buffer
	require.NoError(t, s.JSON(&buf))

	var got Summary
	require.NoError(t, sonnet.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *s, got)
	assert.NotContains(t, buf.String(), `"errors"`)
}

func TestTextReportsStatus(t *testing.T) {
	s := sample()
	var buf bytes.Buffer
	require.NoError(t, s.Text(&buf))
	out := buf.String()
	assert.Contains(t, out, "WORLD")
	assert.Contains(t, out, "non-freed allocations: 0, non-freed bytes: 0")
	assert.True(t, s.OK())
	assert.Contains(t, out, "ok\n")

	s.Memory = memory.Stats{LiveAllocations: 1, LiveBytes: 64}
	s.AddError(multierr.Combine(errors.New("leak"), errors.New("stale")), nil)
	assert.Len(t, s.Errors, 2)
	buf.Reset()
	require.NoError(t, s.Text(&buf))
	assert.False(t, s.OK())
	assert.Contains(t, buf.String(), "error: leak")
	assert.Contains(t, buf.String(), "FAILED")
}
