// Package main is the perfmon command: it records per-process memory
// counters of a world to CSV and charts recordings back.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobolobo/perfmonitor/internal/config"
	"github.com/bobolobo/perfmonitor/internal/logging"
	"github.com/bobolobo/perfmonitor/internal/profile"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := buildRoot(a).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
}

// app carries what commands share: flags, streams and, after setup, the
// loaded configuration and logger.
type app struct {
	flags  GlobalFlags
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *zap.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, logger: zap.NewNop()}
}

// setup loads and validates configuration and builds the logger.
func (a *app) setup(cli config.CLIOverrides) error {
	cli.LogLevel = a.flags.LogLevel

	var (
		cfg *config.Config
		err error
	)
	if a.flags.ConfigPath != "" {
		cfg, err = config.LoadLayered(cli, embeddedConfig, a.flags.ConfigPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.Logging)
	return nil
}

func (a *app) registry() (*profile.Registry, error) {
	return profile.DefaultRegistry(a.cfg.Worlds...)
}

func buildRoot(a *app) *cobra.Command {
	root := createRootCommand(&a.flags)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(
		createRecordCommand(a),
		createReportCommand(a),
		createWorldsCommand(a),
		createHistoryCommand(a),
		createConfigCommand(a),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:     "perfmon",
		Short:   "Record and chart per-process memory counters",
		Version: version,
		Long: `perfmon samples the memory counters of a world's processes once per
interval, writes them to a CSV record file and charts recordings back.

Examples:
  perfmon record newworld esf 8       # eight hours, ESF services included
  perfmon record catcworld noesf 1 --interval 30s
  perfmon report newworld             # pick columns interactively
  perfmon worlds`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to YAML config file (optional)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return root
}
