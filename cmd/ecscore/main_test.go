package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/l1jgo/ecscore/internal/config"
	"github.com/l1jgo/ecscore/internal/core/memory"
	"github.com/l1jgo/ecscore/internal/report"
	"github.com/l1jgo/ecscore/internal/scenario"
)

func TestNewLogger(t *testing.T) {
	for _, cfg := range []config.LoggingConfig{
		{Level: "debug", Format: "json"},
		{Level: "warn", Format: "console"},
		{Level: "nonsense"},
	} {
		log, err := newLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, log)
	}
}

func TestWorldRunner(t *testing.T) {
	memory.EnableTracking(true)
	defer memory.EnableTracking(false)
	memory.Reset()
	defer memory.Reset()

	scripts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "spawn.lua"), []byte(`
		for i = 1, 10 do ecs.create() end
		function on_tick(n) ecs.create() end
	`), 0o644))

	cfg := config.Default()
	cfg.Runner.ScriptDir = scripts
	cfg.Soak.Ticks = 5
	cfg.Soak.SpawnPerTick = 4
	cfg.Soak.DeleteRatio = 0

	scenarios, err := scenario.LoadDir(filepath.Join("..", "..", "scenarios"))
	require.NoError(t, err)

	wr := &worldRunner{
		cfg:       cfg,
		log:       zaptest.NewLogger(t),
		scenarios: scenarios,
		runner:    scenario.NewRunner(nil, mapHasher("xxhash")),
	}
	var out report.World
	require.NoError(t, wr.run(context.Background(), 2, &out))
	assert.Empty(t, wr.failures)

	assert.Equal(t, 2, out.World)
	assert.Len(t, out.Scenarios, len(scenarios))
	assert.Len(t, out.Scripts, 1)
	assert.Equal(t, uint64(5), out.Ticks)
	assert.Equal(t, 20, out.Created)
	assert.Equal(t, 10+5+20, out.Alive)
	assert.NoError(t, memory.Leaks())
}

func TestLoadConfigExplicitPath(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
