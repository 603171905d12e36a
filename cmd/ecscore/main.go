package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/l1jgo/ecscore/internal/config"
	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/hash"
	"github.com/l1jgo/ecscore/internal/core/invariant"
	"github.com/l1jgo/ecscore/internal/core/memory"
	"github.com/l1jgo/ecscore/internal/report"
	"github.com/l1jgo/ecscore/internal/scenario"
	"github.com/l1jgo/ecscore/internal/scripting"
	"github.com/l1jgo/ecscore/internal/system"
)

const defaultConfigPath = "config/ecscore.toml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Console helpers ───────────────────────────────────────────────

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

// ── Run ───────────────────────────────────────────────────────────

func run() error {
	flags := flag.NewFlagSet("ecscore", flag.ExitOnError)
	cfgPath := flags.String("config", "", "config file (default $ECSCORE_CONFIG or "+defaultConfigPath+")")
	prof := flags.String("profile", "", `profile the run: "cpu" or "mem"`)
	worlds := flags.Int("worlds", 0, "worlds to run concurrently (overrides runner.worlds)")
	flags.Parse(os.Args[1:])

	// 1. Load config
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *worlds > 0 {
		cfg.Runner.Worlds = *worlds
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile %q", *prof)
	}

	// 3. Debug switches must be set before the first allocation.
	if v := cfg.Debug.TrackAllocations; v != nil {
		memory.EnableTracking(*v)
	}
	if v := cfg.Debug.Assertions; v != nil {
		invariant.SetEnabled(*v)
	}

	// 4. Load workloads
	scenarios, err := scenario.LoadDir(cfg.Runner.ScenarioDir)
	if err != nil {
		return fmt.Errorf("scenarios: %w", err)
	}
	consoleOut := cfg.Runner.ReportFormat == "text"
	if consoleOut {
		printSection("workload")
		printStat("scenarios", len(scenarios))
		printStat("worlds", cfg.Runner.Worlds)
		printStat("soak ticks", cfg.Soak.Ticks)
		fmt.Println()
	}
	log.Info("starting",
		zap.Int("worlds", cfg.Runner.Worlds),
		zap.Int("scenarios", len(scenarios)),
		zap.String("hasher", cfg.Map.Hasher),
		zap.Bool("tracking", memory.Tracking()),
		zap.Bool("assertions", invariant.Enabled()),
	)

	// 5. Run every world on its own goroutine
	start := time.Now()
	summary := &report.Summary{
		Worlds:   make([]report.World, cfg.Runner.Worlds),
		Tracking: memory.Tracking(),
	}
	wr := &worldRunner{
		cfg:       cfg,
		log:       log,
		scenarios: scenarios,
		runner:    scenario.NewRunner(log, mapHasher(cfg.Map.Hasher)),
	}

	g, ctx := errgroup.WithContext(context.Background())
	for i := range summary.Worlds {
		g.Go(func() error {
			return wr.run(ctx, i, &summary.Worlds[i])
		})
	}
	if err := g.Wait(); err != nil {
		summary.AddError(err)
	}
	summary.AddError(wr.failures...)

	// 6. Every world is disposed by now; anything still tracked leaked.
	summary.Memory = memory.Snapshot()
	if summary.Tracking {
		summary.AddError(memory.Leaks())
	}
	log.Info("finished", zap.Duration("elapsed", time.Since(start)), zap.Int("errors", len(summary.Errors)))

	if consoleOut {
		printSection("report")
		err = summary.Text(os.Stdout)
	} else {
		err = summary.JSON(os.Stdout)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if !summary.OK() {
		return errors.New("run failed")
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("ECSCORE_CONFIG")
	}
	if path == "" {
		cfg, err := config.Load(defaultConfigPath)
		if errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return cfg, err
	}
	return config.Load(path)
}

func mapHasher(name string) hash.Func[uint64] {
	if name == "xxhash" {
		return hash.XXValue[uint64]
	}
	return hash.Value[uint64]
}

// worldRunner holds what the world goroutines share.
type worldRunner struct {
	cfg       *config.Config
	log       *zap.Logger
	scenarios []*scenario.Scenario
	runner    *scenario.Runner

	mu       sync.Mutex
	failures []error
}

func (r *worldRunner) fail(err error) {
	r.mu.Lock()
	r.failures = append(r.failures, err)
	r.mu.Unlock()
}

// run replays every scenario on a fresh world, then runs scripts and the
// soak loop on one more. Expectation failures are collected; script load
// errors stop every world.
func (r *worldRunner) run(ctx context.Context, id int, out *report.World) error {
	log := r.log.With(zap.Int("world", id))
	out.World = id

	for _, sc := range r.scenarios {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := ecs.NewWorldWithCapacity(r.cfg.Index.InitialDenseCapacity)
		res, err := r.runner.Run(w, sc)
		w.Dispose()
		out.Scenarios = append(out.Scenarios, res)
		if err != nil {
			log.Warn("scenario failed", zap.String("scenario", sc.Name), zap.Error(err))
			r.fail(fmt.Errorf("world %d: %w", id, err))
		}
	}

	w := ecs.NewWorldWithCapacity(r.cfg.Index.InitialDenseCapacity)
	defer w.Dispose()
	engine := scripting.NewEngine(w, log)
	defer engine.Close()

	if err := engine.LoadDir(r.cfg.Runner.ScriptDir); err != nil {
		return fmt.Errorf("world %d: scripts: %w", id, err)
	}
	out.Scripts = engine.Files()

	if r.cfg.Soak.Ticks > 0 {
		soak := system.NewSoak(w, engine, r.cfg.Soak, id, log)
		if err := soak.Run(r.cfg.Soak.Ticks); err != nil {
			r.fail(fmt.Errorf("world %d: soak: %w", id, err))
		}
		tally := soak.Tally()
		out.Ticks = soak.Ticks()
		out.Created, out.Queued, out.Flushed = tally.Created, tally.Queued, tally.Flushed
	}
	out.Alive = w.Index().AliveCount() - 1
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
