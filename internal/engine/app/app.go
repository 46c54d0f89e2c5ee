// Package app sequences a node's lifetime: init hooks run in order, then
// the run hook, then the fallback exactly once on the way out.
package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akyaiy/rpcnode/internal/core/corestate"
	"github.com/akyaiy/rpcnode/internal/core/run_manager"
	"github.com/akyaiy/rpcnode/internal/engine/config"
)

type InitHook func(cs *corestate.CoreState, x *AppX)
type RunHook func(ctx context.Context, cs *corestate.CoreState, x *AppX) error
type FallbackHook func(ctx context.Context, cs *corestate.CoreState, x *AppX)

type AppContract interface {
	InitialHooks(fn ...InitHook)
	Run(fn RunHook) error
	Fallback(fn FallbackHook)

	CallFallback(ctx context.Context)
}

type App struct {
	initHooks []InitHook
	runHook   RunHook
	fallback  FallbackHook

	Corestate *corestate.CoreState
	AppX      *AppX

	fallbackOnce sync.Once
}

// AppX is what every hook may touch besides the core state.
type AppX struct {
	Config  *config.Compositor
	Log     *log.Logger
	SLog    *slog.Logger
	Runtime *run_manager.RunManager
}

func New() *App {
	return &App{
		AppX: &AppX{
			Log:  log.Default(),
			SLog: slog.New(slog.DiscardHandler),
		},
		Corestate: &corestate.CoreState{},
	}
}

func (a *App) InitialHooks(fn ...InitHook) {
	a.initHooks = append(a.initHooks, fn...)
}

func (a *App) Fallback(fn FallbackHook) {
	a.fallback = fn
}

// Run executes the init hooks and then fn under a context that is
// cancelled on SIGINT, SIGTERM or SIGQUIT. A panic in fn triggers the
// fallback and is returned as an error.
func (a *App) Run(fn RunHook) (err error) {
	a.runHook = fn

	for _, hook := range a.initHooks {
		hook(a.Corestate, a.AppX)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			a.AppX.Log.Printf("PANIC recovered: %v", r)
			a.CallFallback(ctx)
			err = fmt.Errorf("panic in run hook: %v", r)
		}
	}()

	if a.runHook != nil {
		if err := a.runHook(ctx, a.Corestate, a.AppX); err != nil {
			return fmt.Errorf("fatal in Run: %w", err)
		}
	}
	return nil
}

func (a *App) CallFallback(ctx context.Context) {
	a.fallbackOnce.Do(func() {
		if a.fallback != nil {
			a.fallback(ctx, a.Corestate, a.AppX)
		}
	})
}
