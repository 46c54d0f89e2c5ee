package sv1

import (
	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
)

// loadUUIDMod exposes uuid.new() and uuid.parse(s).
func loadUUIDMod(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"new": func(L *lua.LState) int {
			L.Push(lua.LString(uuid.NewString()))
			return 1
		},
		"parse": func(L *lua.LState) int {
			u, err := uuid.Parse(L.CheckString(1))
			if err != nil {
				L.Push(lua.LNil)
				L.Push(lua.LString(err.Error()))
				return 2
			}
			L.Push(lua.LString(u.String()))
			L.Push(lua.LNil)
			return 2
		},
	})
	L.Push(mod)
	return 1
}
