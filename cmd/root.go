package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/akyaiy/rpcnode/hooks"
	"github.com/akyaiy/rpcnode/internal/core/corestate"
	"github.com/akyaiy/rpcnode/internal/engine/logs"
	"github.com/spf13/cobra"
)

var compositor = hooks.Compositor

var rootCmd = &cobra.Command{
	Use:           "node",
	Short:         "JSON-RPC 2.0 node",
	Long:          "Serves JSON-RPC 2.0 procedures over HTTP and talks to other nodes",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() {
	log.SetOutput(os.Stdout)
	log.SetPrefix(logs.SetBrightBlack(fmt.Sprintf("(%s) ", corestate.StageNotReady)))
	log.SetFlags(log.Ldate | log.Ltime)
	compositor.LoadCMDLine(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Printf("%s: %s", logs.PrintError(), err.Error())
		os.Exit(1)
	}
}
