package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/akyaiy/rpcnode/internal/core/corestate"
	"github.com/akyaiy/rpcnode/internal/core/run_manager"
	"github.com/akyaiy/rpcnode/internal/engine/app"
	"github.com/akyaiy/rpcnode/internal/engine/config"
	"github.com/akyaiy/rpcnode/internal/engine/logs"
)

var Compositor *config.Compositor = config.NewCompositor()

func Init0Hook(cs *corestate.CoreState, x *app.AppX) {
	x.Config = Compositor
	x.Log.SetOutput(os.Stdout)
	x.Log.SetPrefix(logs.SetBrightBlack(fmt.Sprintf("(%s) ", cs.Stage)))
	x.Log.SetFlags(log.Ldate | log.Ltime)
}

// First stage: pre-init
func Init1Hook(cs *corestate.CoreState, x *app.AppX) {
	*cs = *corestate.NewCorestate(&corestate.CoreState{
		UUID32DirName:      "uuid",
		NodeBinName:        filepath.Base(os.Args[0]),
		NodeVersion:        config.NodeVersion,
		MetaDir:            config.MetaDir,
		Stage:              corestate.StagePreInit,
		StartTimestampUnix: time.Now().Unix(),
	})
}

func Init2Hook(cs *corestate.CoreState, x *app.AppX) {
	x.Log.SetPrefix(logs.SetBlue(fmt.Sprintf("(%s) ", cs.Stage)))

	if err := x.Config.LoadEnv(); err != nil {
		x.Log.Fatalf("env load error: %s", err)
	}
	cs.NodePath = *x.Config.Env.NodePath

	if x.Config.CMDLine != nil {
		if cfgPath := x.Config.CMDLine.Run.ConfigPath; cfgPath != "" {
			x.Config.Env.ConfigPath = &cfgPath
		}
	}
	if err := x.Config.LoadConf(*x.Config.Env.ConfigPath); err != nil {
		x.Log.Fatalf("conf load error: %s", err)
	}
}

func Init3Hook(cs *corestate.CoreState, x *app.AppX) {
	uuidDir := filepath.Join(cs.NodePath, cs.MetaDir, cs.UUID32DirName)
	uuid32, err := corestate.GetNodeUUID(uuidDir)
	if errors.Is(err, fs.ErrNotExist) {
		if err := corestate.SetNodeUUID(uuidDir); err != nil {
			x.Log.Fatalf("Cannot generate node uuid: %s", err.Error())
		}
		uuid32, err = corestate.GetNodeUUID(uuidDir)
	}
	if err != nil {
		x.Log.Fatalf("uuid load error: %s", err)
	}
	cs.UUID32 = uuid32
	x.Log.Printf("Node uuid is %s", cs.UUID32)
}

// post-init stage
func Init4Hook(cs *corestate.CoreState, x *app.AppX) {
	cs.Stage = corestate.StagePostInit
	x.Log.SetPrefix(logs.SetYellow(fmt.Sprintf("(%s) ", cs.Stage)))

	rm, err := run_manager.Create("", cs.UUID32, config.RuntimeSuffix)
	if err != nil {
		x.Log.Fatalf("Unexpected failure: %s", err.Error())
	}
	x.Runtime = rm
	cs.RunDir = rm.RuntimeDir()

	exist, err := rm.Siblings(cs.UUID32, config.RuntimeSuffix)
	if err != nil {
		_ = rm.Clean()
		x.Log.Fatalf("Unexpected failure: %s", err.Error())
	}
	if exist {
		_ = rm.Clean()
		x.Log.Fatalf("Unable to continue node operation: A node with the same identifier was found in the runtime environment")
	}

	err = rm.WriteLock("run.lock", run_manager.LockInfo{
		PID:     os.Getpid(),
		Version: cs.NodeVersion,
		UUID:    cs.UUID32,
		Started: time.Unix(cs.StartTimestampUnix, 0),
	})
	if err != nil {
		_ = rm.Clean()
		x.Log.Fatalf("Unexpected failure: %s", err.Error())
	}
}

func Init5Hook(cs *corestate.CoreState, x *app.AppX) {
	if !slices.Contains(*x.Config.Conf.DisableWarnings, "--WNonStdTmpDir") && os.TempDir() != "/tmp" {
		x.Log.Printf("%s: %s", logs.PrintWarn(), "Non-standard value specified for temporary directory")
	}
	if strings.Contains(*x.Config.Conf.Log.OutPath, `%tmp%`) {
		replaced := strings.ReplaceAll(*x.Config.Conf.Log.OutPath, "%tmp%", filepath.Clean(x.Runtime.RuntimeDir()))
		x.Config.Conf.Log.OutPath = &replaced
	}
	if *x.Config.Conf.Node.ShowConfig {
		x.Log.Printf("Configuration:")
		x.Config.Print(x.Config.Conf)
	}
}

func Init6Hook(cs *corestate.CoreState, x *app.AppX) {
	cs.Stage = corestate.StageReady
	x.Log.SetPrefix(logs.SetGreen(fmt.Sprintf("(%s) ", cs.Stage)))

	if x.Config.CMDLine != nil && x.Config.CMDLine.Node.Debug {
		level := "debug"
		x.Config.Conf.Log.Level = &level
	}
	newSlog, err := logs.SetupLogger(x.Config.Conf.Log)
	if err != nil {
		_ = x.Runtime.Clean()
		x.Log.Fatalf("Unexpected failure: %s", err.Error())
	}
	x.SLog = newSlog.With(slog.String("node", cs.UUID32))
}
