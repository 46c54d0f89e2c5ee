package sv1

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/akyaiy/rpcnode/internal/server/rpc"
	"github.com/akyaiy/rpcnode/internal/server/session"
	lua "github.com/yuin/gopher-lua"
)

const prepareScript = "_prepare.lua"

// LuaProcedure runs one script. Each phase gets its own Lua state, the
// script is loaded and the matching global function is called:
//
//	function Validate(params) ... end     -- optional
//	function Execute(params, id) ... end  -- required
//
// Validate rejects params by returning false with a message or by raising
// an error. Execute returns result, err. Raised or returned errors are
// either strings or tables of the form {code = ..., message = ..., data = ...}.
type LuaProcedure struct {
	h      *HandlerV1
	method string
	path   string
}

func (p *LuaProcedure) Validate(ctx context.Context, params any) error {
	L, err := p.load(ctx, rpc.NoID())
	if err != nil {
		return err
	}
	defer p.h.pool.Put(L)

	fn := L.GetGlobal("Validate")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, ConvertGolangTypesToLua(L, params)); err != nil {
		return scriptError(err, rpc.ErrInvalidParams)
	}
	ok, msg := L.Get(-2), L.Get(-1)
	L.Pop(2)

	if ok == lua.LFalse {
		if msg.Type() == lua.LTTable {
			return errorFromTable(msg.(*lua.LTable), rpc.ErrInvalidParams)
		}
		message := ""
		if msg.Type() == lua.LTString {
			message = msg.String()
		}
		return rpc.NewInvalidParams(message)
	}
	return nil
}

func (p *LuaProcedure) Execute(ctx context.Context, params any, id rpc.ID) (any, error) {
	L, err := p.load(ctx, id)
	if err != nil {
		return nil, err
	}
	defer p.h.pool.Put(L)

	fn := L.GetGlobal("Execute")
	if fn.Type() != lua.LTFunction {
		p.h.log.Error("script has no Execute function", slog.String("script", p.path))
		return nil, rpc.NewInternalError("Execute is not defined")
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true},
		ConvertGolangTypesToLua(L, params), ConvertGolangTypesToLua(L, id)); err != nil {
		return nil, scriptError(err, rpc.ErrInternalError)
	}
	result, errVal := L.Get(-2), L.Get(-1)
	L.Pop(2)

	switch errVal.Type() {
	case lua.LTNil:
		return ConvertLuaTypesToGolang(result), nil
	case lua.LTTable:
		rerr := errorFromTable(errVal.(*lua.LTable), rpc.ErrInternalError)
		p.h.log.Debug("the script terminated with an error",
			slog.String("script", p.path), slog.Int("code", rerr.Code), slog.String("message", rerr.Message))
		return nil, rerr
	case lua.LTBool:
		if errVal == lua.LFalse {
			return ConvertLuaTypesToGolang(result), nil
		}
	}
	return nil, rpc.NewInternalError(errVal.String())
}

// load prepares a state with the In and Log globals, runs the optional
// _prepare.lua of the command directory and then the script itself.
func (p *LuaProcedure) load(ctx context.Context, id rpc.ID) (*lua.LState, error) {
	L := p.h.pool.Get()
	L.SetContext(ctx)

	inTable := L.NewTable()
	L.SetField(inTable, "Method", lua.LString(p.method))
	L.SetField(inTable, "ID", ConvertGolangTypesToLua(L, id))
	L.SetField(inTable, "Session", lua.LString(session.IDFromContext(ctx)))
	L.SetField(inTable, "Node", lua.LString(p.h.node))
	L.SetGlobal("In", inTable)
	L.SetGlobal("Log", p.logTable(L))

	prep := filepath.Join(p.h.comDir, prepareScript)
	if _, err := os.Stat(prep); err == nil {
		if err := L.DoFile(prep); err != nil {
			p.h.pool.Put(L)
			p.h.log.Error("prepare script failed", slog.String("script", prep), slog.String("err", err.Error()))
			return nil, rpc.NewInternalError(err.Error())
		}
	}
	if err := L.DoFile(p.path); err != nil {
		p.h.pool.Put(L)
		p.h.log.Error("script failed to load", slog.String("script", p.path), slog.String("err", err.Error()))
		return nil, rpc.NewInternalError(err.Error())
	}
	return L, nil
}

func (p *LuaProcedure) logTable(L *lua.LState) *lua.LTable {
	logTable := L.NewTable()

	logFuncs := map[string]func(string, ...any){
		"Info":  p.h.log.Info,
		"Debug": p.h.log.Debug,
		"Error": p.h.log.Error,
		"Warn":  p.h.log.Warn,
	}
	for name, logFunc := range logFuncs {
		L.SetField(logTable, name, L.NewFunction(func(L *lua.LState) int {
			logFunc(fmt.Sprintf("the script says: %s", L.ToString(1)),
				slog.String("script", p.path), slog.String("method", p.method))
			return 0
		}))
	}
	return logTable
}

// scriptError maps an error raised inside a script. Raised tables carry
// their own code; anything else gets defaultCode.
func scriptError(err error, defaultCode int) *rpc.Error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		if tbl, ok := apiErr.Object.(*lua.LTable); ok {
			return errorFromTable(tbl, defaultCode)
		}
		if apiErr.Type == lua.ApiErrorRun && apiErr.Object.Type() == lua.LTString {
			return rpc.NewError(defaultCode, apiErr.Object.String(), nil)
		}
	}
	return rpc.NewError(defaultCode, err.Error(), nil)
}

func errorFromTable(tbl *lua.LTable, defaultCode int) *rpc.Error {
	code := defaultCode
	if c, ok := tbl.RawGetString("code").(lua.LNumber); ok {
		code = int(c)
	}
	message := ""
	if m, ok := tbl.RawGetString("message").(lua.LString); ok {
		message = string(m)
	}
	var data any
	if d := tbl.RawGetString("data"); d != lua.LNil {
		data = ConvertLuaTypesToGolang(d)
	}
	return rpc.NewError(code, message, data)
}
