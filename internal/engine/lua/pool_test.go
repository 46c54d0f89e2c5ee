package lua

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestFunc_LuaPool(t *testing.T) {
	inits := 0
	lp := NewLuaPool(func(L *lua.LState) {
		inits++
		L.SetGlobal("ready", lua.LTrue)
	})

	L := lp.Get()
	if L.GetGlobal("ready") != lua.LTrue {
		t.Fatalf("state was not initialised")
	}
	if err := L.DoString(`leaked = 1`); err != nil {
		t.Fatal(err)
	}
	lp.Put(L)

	next := lp.Get()
	defer lp.Put(next)
	if next.GetGlobal("leaked") != lua.LNil {
		t.Errorf("global from a previous run is visible")
	}
	if next.GetGlobal("ready") != lua.LTrue {
		t.Errorf("replacement state was not initialised")
	}
	if inits < 2 {
		t.Errorf("init ran %d times; want at least 2", inits)
	}
}
