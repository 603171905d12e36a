package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Debug   DebugConfig   `toml:"debug"`
	Index   IndexConfig   `toml:"index"`
	Map     MapConfig     `toml:"map"`
	Runner  RunnerConfig  `toml:"runner"`
	Soak    SoakConfig    `toml:"soak"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DebugConfig overrides the build-tag defaults of the memory and invariant
// packages. Unset fields keep the build default.
type DebugConfig struct {
	TrackAllocations *bool `toml:"track_allocations"`
	Assertions       *bool `toml:"assertions"`
}

type IndexConfig struct {
	InitialDenseCapacity int `toml:"initial_dense_capacity"`
}

type MapConfig struct {
	Hasher string `toml:"hasher"` // "wyhash" or "xxhash"
}

type RunnerConfig struct {
	Worlds       int    `toml:"worlds"`
	ScenarioDir  string `toml:"scenario_dir"`
	ScriptDir    string `toml:"script_dir"`
	ReportFormat string `toml:"report_format"` // "text" or "json"
}

// SoakConfig drives the tick loop run after scenarios and scripts.
// Ticks == 0 disables it.
type SoakConfig struct {
	Ticks        int     `toml:"ticks"`
	SpawnPerTick int     `toml:"spawn_per_tick"`
	DeleteRatio  float64 `toml:"delete_ratio"` // share of live entities queued per tick (0.0-1.0)
	Seed         uint64  `toml:"seed"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	switch c.Map.Hasher {
	case "wyhash", "xxhash":
	default:
		return fmt.Errorf("map.hasher: unknown hasher %q", c.Map.Hasher)
	}
	switch c.Runner.ReportFormat {
	case "text", "json":
	default:
		return fmt.Errorf("runner.report_format: unknown format %q", c.Runner.ReportFormat)
	}
	if c.Runner.Worlds < 1 {
		return fmt.Errorf("runner.worlds: must be at least 1, got %d", c.Runner.Worlds)
	}
	if c.Index.InitialDenseCapacity < 1 {
		return fmt.Errorf("index.initial_dense_capacity: must be at least 1, got %d", c.Index.InitialDenseCapacity)
	}
	if c.Soak.DeleteRatio < 0 || c.Soak.DeleteRatio > 1 {
		return fmt.Errorf("soak.delete_ratio: %v out of range", c.Soak.DeleteRatio)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Index: IndexConfig{
			InitialDenseCapacity: 1024,
		},
		Map: MapConfig{
			Hasher: "wyhash",
		},
		Runner: RunnerConfig{
			Worlds:       1,
			ScenarioDir:  "scenarios",
			ScriptDir:    "scripts",
			ReportFormat: "text",
		},
		Soak: SoakConfig{
			SpawnPerTick: 256,
			DeleteRatio:  0.25,
			Seed:         1,
		},
	}
}
