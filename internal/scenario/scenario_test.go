package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/hash"
	"github.com/l1jgo/ecscore/internal/core/memory"
)

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, r *Runner, sc *Scenario) (Result, error) {
	t.Helper()
	w := ecs.NewWorld()
	defer w.Dispose()
	return r.Run(w, sc)
}

func TestBundledScenariosPass(t *testing.T) {
	memory.EnableTracking(true)
	defer memory.EnableTracking(false)
	memory.Reset()
	defer memory.Reset()

	scenarios, err := LoadDir(filepath.Join("..", "..", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, hasher := range []hash.Func[uint64]{hash.Value[uint64], hash.XXValue[uint64]} {
		r := NewRunner(zaptest.NewLogger(t), hasher)
		for _, sc := range scenarios {
			res, err := run(t, r, sc)
			assert.NoError(t, err, sc.Name)
			assert.Equal(t, len(sc.Steps), res.Steps)
			assert.Zero(t, res.Failed)
		}
	}
	assert.NoError(t, memory.Leaks())
}

func TestRunCollectsFailures(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "bad.yaml", `
name: bad
steps:
  - op: create
    count: 2
  - op: expect
    alive_count: 7
    generation: 3
  - op: delete
  - op: expect
    stale_dead: true
  - op: map
    count: 4
    buckets: 16
`)
	sc, err := Load(path)
	require.NoError(t, err)

	res, err := run(t, NewRunner(nil, nil), sc)
	require.Error(t, err)
	assert.Equal(t, 5, res.Steps)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Deleted)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "alive_count: got 3, want 7")
	assert.Contains(t, err.Error(), "buckets: got 8, want 16")
}

func TestDeleteTwiceNeedsEntity(t *testing.T) {
	sc := &Scenario{Name: "empty", Steps: []Step{{Op: OpDeleteTwice}}}
	res, err := run(t, NewRunner(nil, nil), sc)
	assert.Error(t, err)
	assert.Equal(t, 1, res.Failed)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"nosteps.yaml": "name: x\n",
		"op.yaml":      "steps:\n  - op: explode\n",
		"order.yaml":   "steps:\n  - op: delete\n    order: sideways\n",
		"count.yaml":   "steps:\n  - op: create\n    count: -1\n",
	} {
		_, err := Load(writeScenario(t, dir, name, body))
		assert.ErrorIs(t, err, ErrInvalid, name)
	}

	_, err := Load(writeScenario(t, dir, "syntax.yaml", "steps: [\n"))
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yml", "steps:\n  - op: create\n")
	writeScenario(t, dir, "a.yaml", "name: first\nsteps:\n  - op: create\n")
	writeScenario(t, dir, "readme.md", "# not a scenario")

	got, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "b.yml", got[1].Name, "name defaults to the file name")

	got, err = LoadDir(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Empty(t, got)
}
