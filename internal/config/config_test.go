package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// Missing file falls back to defaults.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Timer.FocusDuration != 25*time.Minute {
		t.Fatalf("expected 25m focus default, got %s", cfg.Timer.FocusDuration)
	}
	if cfg.Timer.SessionsUntilLongBreak != 4 {
		t.Fatalf("expected 4 sessions until long break, got %d", cfg.Timer.SessionsUntilLongBreak)
	}
	if cfg.Timer.AutoAdvance {
		t.Fatal("auto_advance should default off")
	}
	if cfg.Storage.Type != "sqlite" {
		t.Fatalf("expected sqlite default, got %s", cfg.Storage.Type)
	}
	if cfg.Ledger.HistoryCap != 100 {
		t.Fatalf("expected history cap 100, got %d", cfg.Ledger.HistoryCap)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("metrics should default off")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
timer:
  focus_duration: 50m
  short_break: 10m
  sessions_until_long_break: 3
  auto_advance: true
storage:
  type: bolt
  path: /tmp/focusd-test.bolt
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Timer.FocusDuration != 50*time.Minute {
		t.Fatalf("expected 50m focus, got %s", cfg.Timer.FocusDuration)
	}
	if cfg.Timer.ShortBreak != 10*time.Minute {
		t.Fatalf("expected 10m short break, got %s", cfg.Timer.ShortBreak)
	}
	// Unset keys keep their defaults.
	if cfg.Timer.LongBreak != 15*time.Minute {
		t.Fatalf("expected default 15m long break, got %s", cfg.Timer.LongBreak)
	}
	if !cfg.Timer.AutoAdvance {
		t.Fatal("expected auto_advance on")
	}
	if cfg.Storage.Type != "bolt" {
		t.Fatalf("expected bolt storage, got %s", cfg.Storage.Type)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"negative focus duration",
			"timer:\n  focus_duration: -5m\n",
			"focus_duration",
		},
		{
			"zero cadence",
			"timer:\n  sessions_until_long_break: 0\n",
			"sessions_until_long_break",
		},
		{
			"unknown storage type",
			"storage:\n  type: cassandra\n",
			"storage.type",
		},
		{
			"bad reset time",
			"ledger:\n  daily_reset_time: 25:99\n",
			"daily_reset_time",
		},
		{
			"bad log level",
			"logging:\n  level: loud\n",
			"logging.level",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("FOCUSD_TIMER_FOCUS_DURATION", "90m")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timer.FocusDuration != 90*time.Minute {
		t.Fatalf("expected env override to 90m, got %s", cfg.Timer.FocusDuration)
	}
}
