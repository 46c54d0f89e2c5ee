package sv1

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	lua "github.com/yuin/gopher-lua"
	_ "modernc.org/sqlite"
)

const dbTypeName = "rpcnode_db"

// dbDSNParams are applied to every connection opened by scripts.
var dbDSNParams = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

type DBConnection struct {
	dbPath string
	log    bool
	logger *slog.Logger
	db     *sql.DB
}

var dbMutexMap = make(map[string]*sync.RWMutex)
var dbGlobalMutex sync.Mutex

// getDBMutex serializes writers to the same database file across scripts.
func getDBMutex(dbPath string) *sync.RWMutex {
	dbGlobalMutex.Lock()
	defer dbGlobalMutex.Unlock()

	if mtx, ok := dbMutexMap[dbPath]; ok {
		return mtx
	}

	mtx := &sync.RWMutex{}
	dbMutexMap[dbPath] = mtx
	return mtx
}

// loadDBMod exposes:
//
//	local db = require("db-sqlite").connect(path, {log = true})
//	local n, err = db:exec(query, {args...})
//	local rows, err = db:query(query, {args...})
//	db:close()
func loadDBMod(llog *slog.Logger) func(*lua.LState) int {
	return func(L *lua.LState) int {
		llog.Debug("import module db-sqlite")
		dbMod := L.NewTable()

		L.SetField(dbMod, "connect", L.NewFunction(func(L *lua.LState) int {
			dbPath := L.CheckString(1)

			logQueries := false
			if L.GetTop() >= 2 {
				opts := L.CheckTable(2)
				if val := opts.RawGetString("log"); val != lua.LNil {
					logQueries = lua.LVAsBool(val)
				}
			}

			db, err := sql.Open("sqlite", dbPath+dbDSNParams)
			if err != nil {
				L.Push(lua.LNil)
				L.Push(lua.LString(err.Error()))
				return 2
			}

			conn := &DBConnection{
				dbPath: dbPath,
				log:    logQueries,
				logger: llog,
				db:     db,
			}

			ud := L.NewUserData()
			ud.Value = conn
			L.SetMetatable(ud, L.GetTypeMetatable(dbTypeName))

			L.Push(ud)
			return 1
		}))

		mt := L.NewTypeMetatable(dbTypeName)
		L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"exec":  dbExec,
			"query": dbQuery,
			"close": dbClose,
		}))

		L.Push(dbMod)
		return 1
	}
}

func checkConn(L *lua.LState) (*DBConnection, bool) {
	ud := L.CheckUserData(1)
	conn, ok := ud.Value.(*DBConnection)
	if !ok || conn.db == nil {
		L.Push(lua.LNil)
		L.Push(lua.LString("invalid database connection"))
		return nil, false
	}
	return conn, true
}

func queryArgs(L *lua.LState) []any {
	var args []any
	if L.GetTop() >= 3 {
		params := L.CheckTable(3)
		for i := 1; i <= params.Len(); i++ {
			args = append(args, ConvertLuaTypesToGolang(params.RawGetInt(i)))
		}
	}
	return args
}

func luaContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func dbExec(L *lua.LState) int {
	conn, ok := checkConn(L)
	if !ok {
		return 2
	}
	query := L.CheckString(2)
	args := queryArgs(L)

	if conn.log {
		conn.logger.Info("DB Exec",
			slog.String("query", query),
			slog.Any("params", args))
	}

	mtx := getDBMutex(conn.dbPath)
	mtx.Lock()
	defer mtx.Unlock()

	res, err := conn.db.ExecContext(luaContext(L), query, args...)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("exec failed: %v", err)))
		return 2
	}
	rows, _ := res.RowsAffected()
	L.Push(lua.LNumber(rows))
	L.Push(lua.LNil)
	return 2
}

func dbQuery(L *lua.LState) int {
	conn, ok := checkConn(L)
	if !ok {
		return 2
	}
	query := L.CheckString(2)
	args := queryArgs(L)

	if conn.log {
		conn.logger.Info("DB Query",
			slog.String("query", query),
			slog.Any("params", args))
	}

	mtx := getDBMutex(conn.dbPath)
	mtx.RLock()
	defer mtx.RUnlock()

	rows, err := conn.db.QueryContext(luaContext(L), query, args...)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("query failed: %v", err)))
		return 2
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("get columns failed: %v", err)))
		return 2
	}

	result := L.NewTable()
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(fmt.Sprintf("scan failed: %v", err)))
			return 2
		}

		rowTable := L.NewTable()
		for i, col := range columns {
			if values[i] != nil {
				L.SetField(rowTable, col, ConvertGolangTypesToLua(L, values[i]))
			}
		}
		result.Append(rowTable)
	}

	if err := rows.Err(); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("rows iteration failed: %v", err)))
		return 2
	}

	L.Push(result)
	L.Push(lua.LNil)
	return 2
}

func dbClose(L *lua.LState) int {
	ud := L.CheckUserData(1)
	conn, ok := ud.Value.(*DBConnection)
	if !ok {
		L.Push(lua.LFalse)
		L.Push(lua.LString("invalid database connection"))
		return 2
	}
	if conn.db != nil {
		if err := conn.db.Close(); err != nil {
			L.Push(lua.LFalse)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		conn.db = nil
	}
	L.Push(lua.LTrue)
	return 1
}
