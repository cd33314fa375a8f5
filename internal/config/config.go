package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Timer   TimerConfig   `mapstructure:"timer"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// TimerConfig defines session durations and sequencing policy
type TimerConfig struct {
	FocusDuration          time.Duration `mapstructure:"focus_duration"`
	ShortBreak             time.Duration `mapstructure:"short_break"`
	LongBreak              time.Duration `mapstructure:"long_break"`
	SessionsUntilLongBreak int           `mapstructure:"sessions_until_long_break"`
	AutoAdvance            bool          `mapstructure:"auto_advance"`
	CountInterrupted       bool          `mapstructure:"count_interrupted"`
}

// LedgerConfig defines in-memory history retention and the day boundary
type LedgerConfig struct {
	HistoryCap     int    `mapstructure:"history_cap"`
	DailyResetTime string `mapstructure:"daily_reset_time"`
	RetentionDays  int    `mapstructure:"retention_days"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines connection settings for the redis backend
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig defines the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BindAddress string `mapstructure:"bind_address"`
	Port        int    `mapstructure:"port"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "focusd", "config.yaml"), nil
}

// DefaultDataDir returns the per-user data directory used by the embedded
// storage backends.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "focusd")
}

// Load loads configuration from file and environment variables. A missing
// config file is not an error; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("FOCUSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Timer defaults follow the classic 25/5/15 cadence
	v.SetDefault("timer.focus_duration", "25m")
	v.SetDefault("timer.short_break", "5m")
	v.SetDefault("timer.long_break", "15m")
	v.SetDefault("timer.sessions_until_long_break", 4)
	v.SetDefault("timer.auto_advance", false)
	v.SetDefault("timer.count_interrupted", false)

	// Ledger defaults
	v.SetDefault("ledger.history_cap", 100)
	v.SetDefault("ledger.daily_reset_time", "00:00")
	v.SetDefault("ledger.retention_days", 90)

	// Storage defaults
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.path", filepath.Join(DefaultDataDir(), "focusd.db"))
	v.SetDefault("storage.redis.host", "127.0.0.1")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.bind_address", "127.0.0.1")
	v.SetDefault("metrics.port", 9390)
}

// validate rejects invalid values outright rather than clamping them
func validate(cfg *Config) error {
	if cfg.Timer.FocusDuration <= 0 {
		return fmt.Errorf("timer.focus_duration must be positive, got %s", cfg.Timer.FocusDuration)
	}
	if cfg.Timer.ShortBreak <= 0 {
		return fmt.Errorf("timer.short_break must be positive, got %s", cfg.Timer.ShortBreak)
	}
	if cfg.Timer.LongBreak <= 0 {
		return fmt.Errorf("timer.long_break must be positive, got %s", cfg.Timer.LongBreak)
	}
	if cfg.Timer.SessionsUntilLongBreak < 1 {
		return fmt.Errorf("timer.sessions_until_long_break must be at least 1, got %d", cfg.Timer.SessionsUntilLongBreak)
	}

	if cfg.Ledger.HistoryCap < 1 {
		return fmt.Errorf("ledger.history_cap must be at least 1, got %d", cfg.Ledger.HistoryCap)
	}
	if _, err := time.Parse("15:04", cfg.Ledger.DailyResetTime); err != nil {
		return fmt.Errorf("ledger.daily_reset_time must be HH:MM, got %q", cfg.Ledger.DailyResetTime)
	}
	if cfg.Ledger.RetentionDays < 0 {
		return fmt.Errorf("ledger.retention_days must not be negative, got %d", cfg.Ledger.RetentionDays)
	}

	switch cfg.Storage.Type {
	case "sqlite", "bolt", "redis":
	default:
		return fmt.Errorf("storage.type must be sqlite, bolt, or redis, got %q", cfg.Storage.Type)
	}
	if cfg.Storage.Type != "redis" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for %s storage", cfg.Storage.Type)
	}

	switch cfg.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && (cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", cfg.Metrics.Port)
	}

	return nil
}
