// Package sv1 serves JSON-RPC methods implemented as Lua scripts.
// A method name such as "user.create" maps to <com_dir>/user/create.lua;
// the script defines Execute(params, id) and optionally Validate(params).
package sv1

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	luaengine "github.com/akyaiy/rpcnode/internal/engine/lua"
	lua "github.com/yuin/gopher-lua"
)

// DefaultAllowedCmd accepts dot separated segments that do not start with
// an underscore, so helper files like _prepare.lua are never callable.
var DefaultAllowedCmd = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_]*(\.[a-zA-Z0-9][a-zA-Z0-9_]*)*$`)

// HandlerV1InitStruct structure is only for initialization
type HandlerV1InitStruct struct {
	Log        *slog.Logger
	ComDir     string
	NodeUUID   string
	AllowedCmd *regexp.Regexp
}

// HandlerV1 resolves method names to scripts. It implements the
// dispatcher's registry.
type HandlerV1 struct {
	log    *slog.Logger
	comDir string
	node   string

	// allowedCmd is the regular expression used to validate method names.
	allowedCmd *regexp.Regexp

	pool *luaengine.LuaPool
}

// InitV1Server initializes a new HandlerV1 with the provided configuration and returns it.
func InitV1Server(o *HandlerV1InitStruct) *HandlerV1 {
	h := &HandlerV1{
		log:        o.Log,
		comDir:     o.ComDir,
		node:       o.NodeUUID,
		allowedCmd: o.AllowedCmd,
	}
	if h.log == nil {
		h.log = slog.New(slog.DiscardHandler)
	}
	if h.allowedCmd == nil {
		h.allowedCmd = DefaultAllowedCmd
	}
	h.pool = luaengine.NewLuaPool(func(L *lua.LState) {
		L.PreloadModule("db-sqlite", loadDBMod(h.log))
		L.PreloadModule("jwt", loadJWTMod(h.log))
		L.PreloadModule("uuid", loadUUIDMod)
	})
	return h
}

func (h *HandlerV1) Has(name string) bool {
	_, err := h.resolveMethodPath(name)
	return err == nil
}

// Get returns a *LuaProcedure, or nil when no script serves name.
func (h *HandlerV1) Get(name string) any {
	path, err := h.resolveMethodPath(name)
	if err != nil {
		return nil
	}
	return &LuaProcedure{h: h, method: name, path: path}
}

// List returns every callable method under the command directory, sorted.
func (h *HandlerV1) List() ([]string, error) {
	var methods []string
	err := filepath.WalkDir(h.comDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".lua" {
			return nil
		}
		rel, err := filepath.Rel(h.comDir, path)
		if err != nil {
			return err
		}
		name := strings.Join(strings.Split(strings.TrimSuffix(rel, ".lua"), string(filepath.Separator)), RPCMethodSeparator)
		if h.allowedCmd.MatchString(name) {
			methods = append(methods, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(methods)
	return methods, nil
}
