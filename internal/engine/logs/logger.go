// Package logs configures the node's structured logger.
// Records go through log/slog; file output is rotated by lumberjack.
package logs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/akyaiy/rpcnode/internal/core/utils"
	"github.com/akyaiy/rpcnode/internal/engine/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var GlobalLevel slog.Level

type levelsStruct struct {
	Available []string
	Fallback  string
}

var Levels = levelsStruct{
	Available: []string{
		"debug", "info",
	},
	Fallback: "info",
}

// SlogWriter lets a *log.Logger, such as http.Server.ErrorLog, write into slog.
type SlogWriter struct {
	Logger *slog.Logger
	Level  slog.Level
}

func (w *SlogWriter) Write(p []byte) (n int, err error) {
	msg := string(bytes.TrimSpace(p))
	w.Logger.Log(context.TODO(), w.Level, msg)
	return len(p), nil
}

// Output resolves the configured destination. "%1%" and "stdout" select
// standard output, "%2%" and "stderr" standard error; anything else is a
// directory that receives a rotated event.log.
func Output(path string) io.Writer {
	switch strings.TrimSpace(path) {
	case "", "%1%", "stdout":
		return os.Stdout
	case "%2%", "stderr":
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(path, "event.log"),
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
}

// SetupLogger builds the node logger from the log section of the config.
func SetupLogger(o *config.Log) (*slog.Logger, error) {
	var handlerOpts = slog.HandlerOptions{}

	switch utils.SafeFetch(o.Level, Levels.Fallback) {
	case "debug":
		GlobalLevel = slog.LevelDebug
	default:
		GlobalLevel = slog.LevelInfo
	}
	handlerOpts.Level = GlobalLevel

	writer := Output(utils.SafeFetch(o.OutPath, "%2%"))
	if utils.SafeFetch(o.JSON, true) {
		return slog.New(slog.NewJSONHandler(writer, &handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(writer, &handlerOpts)), nil
}
