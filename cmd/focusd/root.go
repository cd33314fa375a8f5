package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"focusd/internal/config"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "focusd",
	Short: "focusd - Focus session timer daemon",
	Long: `focusd runs timed focus and break sessions in the Pomodoro style. It
alternates focus blocks with short breaks, schedules a long break after a
configurable number of completed focus sessions, and keeps a persistent
ledger of everything it ran.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to run command when no subcommand is provided
		return runDaemon(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default is the per-user config dir)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path and loads the configuration.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = path
	}
	return config.Load(path)
}
