package sv1

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/akyaiy/rpcnode/internal/server/rpc"
	lua "github.com/yuin/gopher-lua"
)

// ConvertLuaTypesToGolang turns a Lua value into its JSON shaped Go
// counterpart. Tables with keys 1..n become []any, other non-empty tables
// become map[string]any and an empty table becomes an empty object.
func ConvertLuaTypesToGolang(value lua.LValue) any {
	switch value.Type() {
	case lua.LTString:
		return value.String()
	case lua.LTNumber:
		return float64(value.(lua.LNumber))
	case lua.LTBool:
		return bool(value.(lua.LBool))
	case lua.LTTable:
		tbl := value.(*lua.LTable)

		n := tbl.Len()
		count := 0
		tbl.ForEach(func(lua.LValue, lua.LValue) { count++ })

		if count == 0 {
			return map[string]any{}
		}
		if n == count {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, ConvertLuaTypesToGolang(tbl.RawGetInt(i)))
			}
			return arr
		}

		result := make(map[string]any, count)
		tbl.ForEach(func(key, val lua.LValue) {
			result[key.String()] = ConvertLuaTypesToGolang(val)
		})
		return result

	case lua.LTNil:
		return nil
	default:
		return value.String()
	}
}

// ConvertGolangTypesToLua is the reverse of ConvertLuaTypesToGolang.
func ConvertGolangTypesToLua(L *lua.LState, val any) lua.LValue {
	switch v := val.(type) {
	case nil:
		return lua.LNil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return lua.LString(v.String())
		}
		return lua.LNumber(f)
	case rpc.ID:
		return ConvertGolangTypesToLua(L, v.Value())
	case []byte:
		return lua.LString(v)
	}

	rv := reflect.ValueOf(val)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())

	case reflect.Slice, reflect.Array:
		tbl := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			tbl.RawSetInt(i+1, ConvertGolangTypesToLua(L, rv.Index(i).Interface()))
		}
		return tbl

	case reflect.Map:
		if rt.Key().Kind() == reflect.String {
			tbl := L.NewTable()
			for _, key := range rv.MapKeys() {
				tbl.RawSetString(key.String(), ConvertGolangTypesToLua(L, rv.MapIndex(key).Interface()))
			}
			return tbl
		}
	}
	return lua.LString(fmt.Sprintf("%v", val))
}
