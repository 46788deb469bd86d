package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobolobo/perfmonitor/internal/profile"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perfmon.yaml")
	if err := os.WriteFile(path, []byte(content), 0640); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	embedded := []byte("collection:\n  interval: 30s\noutput:\n  dir: /embedded\n")
	t.Setenv("PERFMON_INTERVAL", "20s")
	t.Setenv("PERFMON_OUTPUT_DIR", "/env")
	cli := CLIOverrides{Interval: 10 * time.Second, OutputDir: "/cli", LogLevel: "debug"}

	cfg, err := LoadLayered(cli, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Collection.Interval.Duration != 10*time.Second {
		t.Errorf("Interval = %v, want CLI override", cfg.Collection.Interval.Duration)
	}
	if cfg.Output.Dir != "/cli" {
		t.Errorf("Output.Dir = %q, want CLI override", cfg.Output.Dir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want CLI override", cfg.Logging.Level)
	}
}

func TestLoadLayered_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "collection:\n  interval: 30s\noutput:\n  dir: /file\nhistory:\n  dsn: file.db\n")
	t.Setenv("PERFMON_OUTPUT_DIR", "/env")
	t.Setenv("PERFMON_HISTORY_DSN", "sqlite:///env.db")

	cfg, err := LoadLayered(CLIOverrides{}, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Dir != "/env" {
		t.Errorf("Output.Dir = %q, want env override", cfg.Output.Dir)
	}
	if cfg.History.DSN != "sqlite:///env.db" {
		t.Errorf("History.DSN = %q, want env override", cfg.History.DSN)
	}
	if cfg.Collection.Interval.Duration != 30*time.Second {
		t.Errorf("Interval = %v, want file value", cfg.Collection.Interval.Duration)
	}
}

func TestLoadLayered_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Collection.Interval.Duration != time.Minute {
		t.Errorf("Interval = %v, want 1m default", cfg.Collection.Interval.Duration)
	}
	if cfg.TicksPerHour() != 60 {
		t.Errorf("TicksPerHour = %d, want 60", cfg.TicksPerHour())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadLayered_ExplicitMissingFile(t *testing.T) {
	_, err := LoadLayered(CLIOverrides{}, nil, filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestLoadLayered_BadEnvInterval(t *testing.T) {
	t.Setenv("PERFMON_INTERVAL", "soon")
	if _, err := LoadLayered(CLIOverrides{}, nil, ""); err == nil {
		t.Fatal("expected error for unparsable PERFMON_INTERVAL")
	}
}

func TestLoadWorlds(t *testing.T) {
	path := writeFile(t, `
worlds:
  - id: notepad
    target: notepad.exe
    counters:
      - '\Process(notepad)\Private Bytes'
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := profile.DefaultRegistry(cfg.Worlds...)
	if err != nil {
		t.Fatal(err)
	}
	p, err := reg.Resolve("notepad")
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.OutputPath(p); got != filepath.Join(cfg.Output.Dir, "notepad.csv") {
		t.Errorf("OutputPath = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		dir      string
		wantErr  bool
	}{
		{"one minute", time.Minute, "out", false},
		{"fifteen seconds", 15 * time.Second, "out", false},
		{"one hour", time.Hour, "out", false},
		{"zero", 0, "out", true},
		{"negative", -time.Second, "out", true},
		{"does not divide an hour", 7 * time.Minute, "out", true},
		{"longer than an hour", 2 * time.Hour, "out", true},
		{"no output dir", time.Minute, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Collection.Interval = Duration{tt.interval}
			cfg.Output.Dir = tt.dir
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTicksFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Collection.Interval = Duration{30 * time.Second}
	if got := cfg.TicksFor(3); got != 360 {
		t.Errorf("TicksFor(3) = %d, want 360", got)
	}
}

func TestWriteConfig_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Output.Dir = "/records"

	if err := WriteConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Output.Dir != "/records" {
		t.Errorf("Output.Dir = %q after reload", back.Output.Dir)
	}
	if back.Collection.Interval.Duration != time.Minute {
		t.Errorf("Interval = %v after reload", back.Collection.Interval.Duration)
	}
}
