package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"focusd/internal/config"
	"focusd/internal/display"
	"focusd/internal/events"
	"focusd/internal/ledger"
	"focusd/internal/metrics"
	"focusd/internal/scheduler"
	"focusd/internal/session"
	"focusd/internal/storage"
	"focusd/internal/storage/bolt"
	"focusd/internal/storage/redis"
	"focusd/internal/storage/sqlite"
	"focusd/internal/systemd"
)

var (
	runKind  string
	runLabel string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the focus timer daemon",
	Long: `Start the timer daemon with an initial session. While running:
  SIGUSR1 toggles pause/resume of the current session
  SIGUSR2 stops the current session and records it as interrupted
  SIGINT/SIGTERM stop the daemon`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&runKind, "kind", "focus", "Kind of the first session (focus, short_break, long_break)")
	runCmd.Flags().StringVar(&runLabel, "label", "", "Label for the first focus session")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	initialKind, err := session.ParseKind(runKind)
	if err != nil {
		return err
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting focusd")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	records := store.Records()

	// Initialize event bus
	bus := events.NewBus(logger)
	defer bus.Close()

	// Initialize ledger
	led, err := ledger.New(cfg.Ledger.HistoryCap)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	// Initialize scheduler; finished sessions land in the ledger and the store
	sched, err := scheduler.New(
		schedulerConfig(cfg.Timer),
		bus,
		logger,
		led,
		&storeSink{records: records},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	logger.Info().
		Dur("focus", cfg.Timer.FocusDuration).
		Dur("short_break", cfg.Timer.ShortBreak).
		Dur("long_break", cfg.Timer.LongBreak).
		Int("sessions_until_long_break", cfg.Timer.SessionsUntilLongBreak).
		Bool("auto_advance", cfg.Timer.AutoAdvance).
		Msg("Scheduler initialized")

	// Initialize day rollover
	rollover, err := ledger.NewRollover(led, records, cfg.Ledger.DailyResetTime, cfg.Ledger.RetentionDays, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize day rollover: %w", err)
	}
	rollover.Start()

	// Attach subscribers
	console := display.NewConsole(os.Stdout, sched.Current)
	bus.Subscribe(console.OnTick, console.OnEnded)

	observer := metrics.NewObserver()
	bus.Subscribe(observer.OnTick, observer.OnEnded)

	// Initialize Metrics Server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Metrics.BindAddress, cfg.Metrics.Port)
		metricsServer = metrics.NewServer(metricsAddr, logger)

		if sdListeners.Activated && sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}

		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start Metrics Server: %w", err)
		}

		logger.Info().
			Str("addr", metricsAddr).
			Msg("Metrics Server started")
	}

	// Start the first session
	if _, err := sched.Start(initialKind, runLabel); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	// Notify systemd that we're ready
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}

	// Wait for signals (commands or shutdown)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)

	for {
		sig := <-sigChan

		switch sig {
		case syscall.SIGUSR1:
			togglePause(sched, logger)
			continue

		case syscall.SIGUSR2:
			rec, err := sched.Stop()
			if errors.Is(err, scheduler.ErrInvalidTransition) {
				logger.Warn().Msg("No session to stop")
			} else if err != nil {
				logger.Error().Err(err).Str("session_id", rec.ID).Msg("Session stopped with persistence error")
			}
			continue

		case os.Interrupt, syscall.SIGTERM:
			logger.Info().Msg("Shutdown signal received, gracefully stopping...")
		}

		// Only reached on shutdown signals
		break
	}

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	// Record the in-flight session, if any, as interrupted before teardown
	if _, err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrInvalidTransition) {
		logger.Error().Err(err).Msg("Error finalizing session on shutdown")
	}

	rollover.Stop()
	sched.Shutdown()

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping Metrics Server")
		}
	}

	logger.Info().Msg("focusd stopped")

	return nil
}

// togglePause pauses a running session or resumes a paused one.
func togglePause(sched *scheduler.Scheduler, logger zerolog.Logger) {
	current, ok := sched.Current()
	if !ok {
		logger.Warn().Msg("No session to pause or resume")
		return
	}

	switch current.State {
	case session.StateRunning:
		if err := sched.Pause(); err != nil {
			logger.Warn().Err(err).Msg("Pause failed")
		}
	case session.StatePaused:
		if err := sched.Resume(); err != nil {
			logger.Warn().Err(err).Msg("Resume failed")
		}
	default:
		logger.Warn().Str("state", string(current.State)).Msg("No session to pause or resume")
	}
}

// storeSink adapts the record store to the scheduler's Recorder interface.
type storeSink struct {
	records storage.RecordStore
}

func (s *storeSink) Record(rec session.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.records.Add(ctx, rec)
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "sqlite", "":
		return sqlite.Open(cfg.Path)
	case "bolt":
		return bolt.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func schedulerConfig(t config.TimerConfig) scheduler.Config {
	return scheduler.Config{
		FocusDuration:          t.FocusDuration,
		ShortBreak:             t.ShortBreak,
		LongBreak:              t.LongBreak,
		SessionsUntilLongBreak: t.SessionsUntilLongBreak,
		AutoAdvance:            t.AutoAdvance,
		CountInterrupted:       t.CountInterrupted,
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Logs go to stderr so they never fight the countdown line on stdout
	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
