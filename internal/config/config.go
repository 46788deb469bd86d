// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bobolobo/perfmonitor/internal/profile"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all perfmon configuration.
type Config struct {
	Collection CollectionConfig     `yaml:"collection"`
	Output     OutputConfig         `yaml:"output"`
	History    HistoryConfig        `yaml:"history"`
	Metrics    MetricsConfig        `yaml:"metrics"`
	Logging    LoggingConfig        `yaml:"logging"`
	Worlds     []profile.Definition `yaml:"worlds,omitempty"`
}

// CollectionConfig holds sampling settings.
type CollectionConfig struct {
	Interval    Duration `yaml:"interval"`
	ReadTimeout Duration `yaml:"read_timeout"`
}

// OutputConfig says where record streams are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// HistoryConfig holds the session history store settings. An empty DSN
// disables history.
type HistoryConfig struct {
	DSN string `yaml:"dsn"`
}

// MetricsConfig holds the Prometheus endpoint settings. An empty Listen
// address disables the endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging settings. File rotation applies only when File
// is set.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Collection: CollectionConfig{
			Interval:    Duration{time.Minute},
			ReadTimeout: Duration{5 * time.Second},
		},
		Output: OutputConfig{
			Dir: defaultOutputDir(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take highest precedence and override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	Interval  time.Duration
	OutputDir string
	LogLevel  string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
//
// An explicit path that does not exist is an error; a discovered one is not.
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	explicit := len(configPath) > 0
	if explicit {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case explicit || !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.Interval > 0 {
		cfg.Collection.Interval = Duration{cli.Interval}
	}
	if cli.OutputDir != "" {
		cfg.Output.Dir = cli.OutputDir
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PERFMON_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PERFMON_INTERVAL: %w", err)
		}
		cfg.Collection.Interval = Duration{d}
	}
	if dir := os.Getenv("PERFMON_OUTPUT_DIR"); dir != "" {
		cfg.Output.Dir = dir
	}
	if level := os.Getenv("PERFMON_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if dsn := os.Getenv("PERFMON_HISTORY_DSN"); dsn != "" {
		cfg.History.DSN = dsn
	}
	return nil
}

// Validate checks that the configuration can drive a recording session.
func (c *Config) Validate() error {
	iv := c.Collection.Interval.Duration
	if iv <= 0 {
		return fmt.Errorf("collection interval must be positive (got %v)", iv)
	}
	if iv > time.Hour || time.Hour%iv != 0 {
		return fmt.Errorf("collection interval must divide an hour evenly (got %v)", iv)
	}
	if c.Collection.ReadTimeout.Duration < 0 {
		return fmt.Errorf("read timeout must not be negative (got %v)", c.Collection.ReadTimeout.Duration)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// OutputPath returns the record file for p.
func (c *Config) OutputPath(p profile.Profile) string {
	return filepath.Join(c.Output.Dir, p.OutputFile)
}

// TicksPerHour returns how many samples one hour holds at the configured
// interval. The interval must have passed Validate.
func (c *Config) TicksPerHour() int {
	return int(time.Hour / c.Collection.Interval.Duration)
}

// TicksFor converts a recording length in hours to a tick budget.
func (c *Config) TicksFor(hours int) int {
	return hours * c.TicksPerHour()
}
