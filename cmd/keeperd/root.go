package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/keeper/pkg/cli"
)

var (
	// Global flags
	cfgPaths  []string
	overrides []string
	envPrefix string
	strict    bool
)

var rootCmd = &cobra.Command{
	Use:   "keeperd",
	Short: "keeperd - hot-reloadable daemon runtime",
	Long: `keeperd runs a long-lived service under the keeper lifecycle runtime.

Configuration is merged from defaults, files, environment variables and
--set overrides, validated as a whole and swapped in atomically. Reloads are
triggered by signals, file changes, cron schedules or the admin endpoint; a
rejected reload leaves the running configuration untouched.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&cfgPaths, "config", "c", nil, "config file or directory (repeatable, later wins)")
	rootCmd.PersistentFlags().StringArrayVar(&overrides, "set", nil, "override a value, e.g. --set daemon.logging.level=debug (repeatable)")
	rootCmd.PersistentFlags().StringVar(&envPrefix, "env-prefix", "KEEPER", "environment variable prefix; empty disables the environment layer")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "reject unknown keys in configuration files")
}
