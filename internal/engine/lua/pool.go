// Package lua keeps ready-to-use Lua states for script procedures.
package lua

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// LuaPool hands out fresh states. A returned state is closed and replaced
// by a new one, so globals never leak from one script run to the next.
type LuaPool struct {
	pool sync.Pool
	init func(L *lua.LState)
}

// NewLuaPool creates a pool whose states are passed through init before use,
// typically to preload modules.
func NewLuaPool(init func(L *lua.LState)) *LuaPool {
	lp := &LuaPool{init: init}
	lp.pool.New = func() any {
		return lp.newState()
	}
	return lp
}

func (lp *LuaPool) newState() *lua.LState {
	L := lua.NewState()
	if lp.init != nil {
		lp.init(L)
	}
	return L
}

func (lp *LuaPool) Get() *lua.LState {
	return lp.pool.Get().(*lua.LState)
}

func (lp *LuaPool) Put(L *lua.LState) {
	L.Close()
	lp.pool.Put(lp.newState())
}
