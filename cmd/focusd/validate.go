package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the focusd configuration file for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		return err
	}

	green := color.New(color.FgGreen)
	_, _ = green.Fprintf(os.Stdout, "Configuration is valid: %s\n", configPath)

	fmt.Fprintf(os.Stdout, "  timer: focus=%s short_break=%s long_break=%s every %d sessions\n",
		cfg.Timer.FocusDuration, cfg.Timer.ShortBreak, cfg.Timer.LongBreak, cfg.Timer.SessionsUntilLongBreak)
	fmt.Fprintf(os.Stdout, "  storage: %s", cfg.Storage.Type)
	if cfg.Storage.Type == "redis" {
		fmt.Fprintf(os.Stdout, " (%s:%d)\n", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port)
	} else {
		fmt.Fprintf(os.Stdout, " (%s)\n", cfg.Storage.Path)
	}
	fmt.Fprintf(os.Stdout, "  ledger: history_cap=%d reset=%s retention=%dd\n",
		cfg.Ledger.HistoryCap, cfg.Ledger.DailyResetTime, cfg.Ledger.RetentionDays)

	return nil
}
