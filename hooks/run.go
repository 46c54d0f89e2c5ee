package hooks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/akyaiy/rpcnode/internal/core/corestate"
	"github.com/akyaiy/rpcnode/internal/core/utils"
	"github.com/akyaiy/rpcnode/internal/engine/app"
	"github.com/akyaiy/rpcnode/internal/engine/logs"
	"github.com/akyaiy/rpcnode/internal/server/gateway"
	"github.com/akyaiy/rpcnode/internal/server/session"
	"github.com/akyaiy/rpcnode/internal/server/sv1"
	"github.com/akyaiy/rpcnode/internal/server/system"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
)

var nodeApp = app.New()

func Run(cmd *cobra.Command, args []string) error {
	nodeApp.InitialHooks(
		Init0Hook, Init1Hook, Init2Hook,
		Init3Hook, Init4Hook, Init5Hook,
		Init6Hook,
	)

	return nodeApp.Run(RunHook)
}

// NewDispatcher assembles the registries of a node: system procedures
// first, then scripts from the command directory.
func NewDispatcher(cs *corestate.CoreState, x *app.AppX) *gateway.Dispatcher {
	conf := x.Config.Conf

	scripts := sv1.InitV1Server(&sv1.HandlerV1InitStruct{
		Log:      x.SLog,
		ComDir:   *conf.Node.ComDir,
		NodeUUID: cs.UUID32,
	})
	builtins := system.New(system.NodeInfo{
		Name:    *conf.Node.Name,
		Version: cs.NodeVersion,
		UUID:    cs.UUID32,
	}, scripts)

	return gateway.NewDispatcher(gateway.ChainRegistry{builtins, scripts},
		gateway.WithLogger(x.SLog),
		gateway.WithStrictNotifications(utils.SafeFetch(conf.RPC.StrictNotifications, false)),
		gateway.WithBatchWorkers(utils.SafeFetch(conf.RPC.BatchWorkers, 1)),
		gateway.WithMaxBatch(utils.SafeFetch(conf.RPC.MaxBatch, 0)),
	)
}

func RunHook(ctx context.Context, cs *corestate.CoreState, x *app.AppX) error {
	ctxMain, cancelMain := context.WithCancel(ctx)
	defer cancelMain()
	conf := x.Config.Conf

	runLockFile := x.Runtime.File("run.lock")
	if _, err := runLockFile.Open(); err != nil {
		return fmt.Errorf("cannot open run.lock: %w", err)
	}
	defer runLockFile.Close()

	_, err := runLockFile.Watch(ctxMain, func() {
		x.Log.Printf("run.lock was touched")
		cancelMain()
	})
	if err != nil {
		x.Log.Printf("watch error: %s", err)
	}

	sm := session.New(*conf.HTTPServer.SessionTTL)
	sm.StartCleanup(ctxMain, 5*time.Second)

	gs := gateway.InitGateway(&gateway.GatewayServerInit{
		Log:        x.SLog,
		Dispatcher: NewDispatcher(cs, x),
		SM:         sm,
		Timeout:    *conf.HTTPServer.Timeout,
	})
	handler := gateway.NewRouter(gs, gateway.RouterOptions{
		Route:     *conf.HTTPServer.Route,
		RateLimit: utils.SafeFetch(conf.HTTPServer.RateLimit, 0),
		RateBurst: utils.SafeFetch(conf.HTTPServer.RateBurst, 1),
	})

	addr := net.JoinHostPort(*conf.HTTPServer.Address, *conf.HTTPServer.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		IdleTimeout: *conf.HTTPServer.IdleTimeout,
		ErrorLog: log.New(&logs.SlogWriter{
			Logger: x.SLog,
			Level:  slog.LevelError,
		}, "", 0),
	}

	nodeApp.Fallback(func(ctx context.Context, cs *corestate.CoreState, x *app.AppX) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			x.Log.Printf("%s: Failed to stop the server gracefully: %s", logs.PrintError(), err.Error())
		} else {
			x.Log.Printf("Server stopped gracefully")
		}

		x.Log.Println("Cleaning up...")

		if err := x.Runtime.Clean(); err != nil {
			x.Log.Printf("%s: Cleanup error: %s", logs.PrintError(), err.Error())
		}
		x.Log.Println("bye!")
	})

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		nodeApp.CallFallback(ctx)
		return fmt.Errorf("failed to start listener: %w", err)
	}
	limitedListener := netutil.LimitListener(listener, utils.SafeFetch(conf.HTTPServer.MaxConns, 100))

	go func() {
		defer utils.CatchPanicWithCancel(cancelMain)
		var err error
		if *conf.TLS.TlsEnabled {
			x.Log.Printf("Serving on %s with TLS... (https://%s%s)", addr, addr, *conf.HTTPServer.Route)
			err = srv.ServeTLS(limitedListener, *conf.TLS.CertFile, *conf.TLS.KeyFile)
		} else {
			x.Log.Printf("Serving on %s... (http://%s%s)", addr, addr, *conf.HTTPServer.Route)
			err = srv.Serve(limitedListener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			x.Log.Printf("%s: Failed to start HTTP server: %s", logs.PrintError(), err.Error())
			cancelMain()
		}
	}()

	x.SLog.Info("node is ready", slog.String("address", addr), slog.String("version", cs.NodeVersion))

	<-ctxMain.Done()
	nodeApp.CallFallback(ctx)
	return nil
}
