package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/ecscore/internal/core/ecs"
)

// maxLuaId bounds ids handed to scripts: index and generation fit in 48 bits,
// which a Lua number holds exactly.
const maxLuaId = 1 << 48

// Engine wraps a single gopher-lua VM bound to one World.
// Single-goroutine access only.
type Engine struct {
	vm    *lua.LState
	world *ecs.World
	log   *zap.Logger
	files []string
}

// NewEngine creates a Lua VM exposing world through the global ecs table.
func NewEngine(world *ecs.World, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, world: world, log: log}
	mod := vm.NewTable()
	vm.SetFuncs(mod, map[string]lua.LGFunction{
		"create":     e.luaCreate,
		"delete":     e.luaDelete,
		"alive":      e.luaAlive,
		"index":      e.luaIndex,
		"generation": e.luaGeneration,
		"count":      e.luaCount,
		"queue":      e.luaQueue,
		"flush":      e.luaFlush,
		"log":        e.luaLog,
	})
	vm.SetGlobal("ecs", mod)
	return e
}

func (e *Engine) Close() {
	e.vm.Close()
}

// Files lists the scripts run so far, in order.
func (e *Engine) Files() []string { return e.files }

// RunFile executes one script file.
func (e *Engine) RunFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	e.files = append(e.files, path)
	e.log.Debug("ran lua script", zap.String("file", path))
	return nil
}

// RunString executes a chunk of Lua source.
func (e *Engine) RunString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run chunk: %w", err)
	}
	return nil
}

// LoadDir runs every .lua file in dir in name order. A missing dir is not an
// error.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if err := e.RunFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// CallHook calls the global Lua function name with args if it exists.
// It reports whether the hook was defined.
func (e *Engine) CallHook(name string, args ...lua.LValue) (bool, error) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return false, nil
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		return true, fmt.Errorf("lua %s: %w", name, err)
	}
	return true, nil
}

// PushId converts id to a Lua number. Ids outside 48 bits have no exact Lua
// representation and are refused.
func PushId(id ecs.Id) (lua.LNumber, error) {
	if id.HasPairFlag() {
		return 0, fmt.Errorf("pair id %#x is not supported", id.Uint64())
	}
	if id.Uint64() >= maxLuaId {
		return 0, fmt.Errorf("id %#x out of range", id.Uint64())
	}
	return lua.LNumber(id.Uint64()), nil
}

func (e *Engine) checkId(L *lua.LState, n int) ecs.Id {
	v := float64(L.CheckNumber(n))
	switch {
	case v < 0 || v != math.Trunc(v):
		L.ArgError(n, "id must be a non-negative integer")
	case v >= 1<<63:
		L.ArgError(n, "pair ids are not supported")
	case v >= maxLuaId:
		L.ArgError(n, "id out of range")
	}
	return ecs.IdFromUint64(uint64(v))
}

func (e *Engine) luaCreate(L *lua.LState) int {
	n, err := PushId(e.world.CreateEntity())
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(n)
	return 1
}

func (e *Engine) luaDelete(L *lua.LState) int {
	e.world.DeleteEntity(e.checkId(L, 1))
	return 0
}

func (e *Engine) luaAlive(L *lua.LState) int {
	L.Push(lua.LBool(e.world.Alive(e.checkId(L, 1))))
	return 1
}

func (e *Engine) luaIndex(L *lua.LState) int {
	L.Push(lua.LNumber(e.checkId(L, 1).Index()))
	return 1
}

func (e *Engine) luaGeneration(L *lua.LState) int {
	L.Push(lua.LNumber(e.checkId(L, 1).Generation()))
	return 1
}

// luaCount returns the number of live entities, sentinel excluded.
func (e *Engine) luaCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.Index().AliveCount() - 1))
	return 1
}

func (e *Engine) luaQueue(L *lua.LState) int {
	e.world.MarkForDestruction(e.checkId(L, 1))
	return 0
}

func (e *Engine) luaFlush(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.FlushDestroyQueue()))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
