package sv1

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var RPCMethodSeparator = "."

var (
	errInvalidMethodFormat = errors.New("invalid method format")
	errMethodNotFound      = errors.New("method not found")
)

func (h *HandlerV1) resolveMethodPath(method string) (string, error) {
	if !h.allowedCmd.MatchString(method) {
		return "", errInvalidMethodFormat
	}

	parts := strings.Split(method, RPCMethodSeparator)
	relPath := filepath.Join(parts...) + ".lua"
	fullPath := filepath.Join(h.comDir, relPath)

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		return "", errMethodNotFound
	}
	return fullPath, nil
}
