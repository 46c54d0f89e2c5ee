package sv1

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt"
	lua "github.com/yuin/gopher-lua"
)

// loadJWTMod exposes HS256 tokens:
//
//	local token, err = jwt.encode({secret = s, payload = {...}, expires_in = 3600})
//	local claims, err = jwt.decode(token, {secret = s})
func loadJWTMod(llog *slog.Logger) func(*lua.LState) int {
	return func(L *lua.LState) int {
		llog.Debug("import module jwt")
		jwtMod := L.NewTable()

		L.SetField(jwtMod, "encode", L.NewFunction(jwtEncode))
		L.SetField(jwtMod, "decode", L.NewFunction(jwtDecode))

		L.Push(jwtMod)
		return 1
	}
}

func jwtEncode(L *lua.LState) int {
	opts := L.CheckTable(1)
	secret := L.GetField(opts, "secret")
	if secret.Type() != lua.LTString {
		L.Push(lua.LNil)
		L.Push(lua.LString("secret is required"))
		return 2
	}
	expDuration := time.Hour
	if exp, ok := L.GetField(opts, "expires_in").(lua.LNumber); ok {
		expDuration = time.Duration(float64(exp) * float64(time.Second))
	}

	claims := jwt.MapClaims{}
	if payload, ok := L.GetField(opts, "payload").(*lua.LTable); ok {
		payload.ForEach(func(key, value lua.LValue) {
			claims[key.String()] = ConvertLuaTypesToGolang(value)
		})
	}
	now := time.Now()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(expDuration).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret.String()))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(lua.LString(signedToken))
	L.Push(lua.LNil)
	return 2
}

func jwtDecode(L *lua.LState) int {
	tokenString := L.CheckString(1)
	opts := L.OptTable(2, L.NewTable())
	secret := L.GetField(opts, "secret").String()

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString("invalid token: " + err.Error()))
		return 2
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		L.Push(lua.LNil)
		L.Push(lua.LString("invalid claims"))
		return 2
	}

	luaTable := L.NewTable()
	for k, v := range claims {
		luaTable.RawSetString(k, ConvertGolangTypesToLua(L, v))
	}

	L.Push(luaTable)
	L.Push(lua.LNil)
	return 2
}
