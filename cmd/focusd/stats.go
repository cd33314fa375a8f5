package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"focusd/internal/session"
	"focusd/internal/storage"
)

var (
	statsDate  string
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded session statistics",
	Long:  `Show the session statistics for one day plus the most recent session records.`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsDate, "date", "", "Day to report on as YYYY-MM-DD (default today)")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "Number of recent sessions to list (0 for all)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	day := statsDate
	if day == "" {
		day = time.Now().Format(storage.DayFormat)
	} else if _, err := time.Parse(storage.DayFormat, day); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", statsDate)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := store.Records().ListDay(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to read session records: %w", err)
	}

	var stats session.DailyStats
	for _, rec := range records {
		stats.Apply(rec)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	_, _ = cyan.Fprintf(os.Stdout, "Stats for %s\n", day)
	_, _ = green.Fprintf(os.Stdout, "  focus sessions completed: %d (%s)\n",
		stats.FocusCompleted, formatSeconds(stats.FocusSeconds))
	_, _ = green.Fprintf(os.Stdout, "  break sessions completed: %d (%s)\n",
		stats.BreakCompleted, formatSeconds(stats.BreakSeconds))
	if stats.Interruptions > 0 {
		_, _ = yellow.Fprintf(os.Stdout, "  interruptions:            %d\n", stats.Interruptions)
	} else {
		fmt.Fprintln(os.Stdout, "  interruptions:            0")
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "\nNo sessions recorded.")
		return nil
	}

	limit := statsLimit
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}

	_, _ = cyan.Fprintf(os.Stdout, "\nRecent sessions (%d of %d)\n", limit, len(records))
	for _, rec := range records[:limit] {
		outcome := green.Sprint("completed")
		if !rec.Completed {
			outcome = yellow.Sprint("interrupted")
		}
		label := ""
		if rec.Label != "" {
			label = "  " + rec.Label
		}
		fmt.Fprintf(os.Stdout, "  %s  %-11s %8s  %s%s\n",
			rec.StartedAt.Format("15:04"),
			rec.Kind,
			formatSeconds(rec.ActualSeconds),
			outcome,
			label,
		)
	}

	return nil
}

// formatSeconds renders a second count as 1h23m or 23m45s.
func formatSeconds(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
