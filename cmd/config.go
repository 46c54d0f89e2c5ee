package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `
"config" merges defaults, the .env file, GS_* variables and the
configuration file, and prints the result as YAML`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := compositor.LoadEnv(); err != nil {
			return err
		}
		path := *compositor.Env.ConfigPath
		if compositor.CMDLine.Config.ConfigPath != "" {
			path = compositor.CMDLine.Config.ConfigPath
		}
		if err := compositor.LoadConf(path); err != nil {
			return err
		}
		return compositor.Dump(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
