package system

import (
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	coresys "github.com/l1jgo/ecscore/internal/core/system"
	"github.com/l1jgo/ecscore/internal/scripting"
)

// ScriptSystem calls the Lua on_tick(tick) hook, if any, once per tick.
type ScriptSystem struct {
	lua    *scripting.Engine
	log    *zap.Logger
	tick   int
	errors int
}

func NewScriptSystem(engine *scripting.Engine, log *zap.Logger) *ScriptSystem {
	return &ScriptSystem{lua: engine, log: log}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// Errors reports how many hook calls failed.
func (s *ScriptSystem) Errors() int { return s.errors }

func (s *ScriptSystem) Update(_ time.Duration) {
	s.tick++
	if _, err := s.lua.CallHook("on_tick", lua.LNumber(s.tick)); err != nil {
		s.errors++
		s.log.Error("lua on_tick error", zap.Int("tick", s.tick), zap.Error(err))
	}
}
