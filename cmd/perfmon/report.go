package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/bobolobo/perfmonitor/internal/config"
	"github.com/bobolobo/perfmonitor/internal/replay"
	"github.com/bobolobo/perfmonitor/internal/report"
)

// ReportFlags holds flags for the report command.
type ReportFlags struct {
	File   string
	Series []string
	All    bool
	Height int
	Width  int
}

func createReportCommand(a *app) *cobra.Command {
	flags := &ReportFlags{}
	cmd := &cobra.Command{
		Use:   "report [world]",
		Short: "Chart a recording",
		Long: `Report reads a world's record file back and plots the chosen counters in
megabytes. Without --series the columns are picked interactively; when
stdin is not a terminal every column is plotted.

Examples:
  perfmon report newworld
  perfmon report --file ./DocAuthPerfData.csv --series '(bgServer)\PrivateBytes'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.report(args, *flags)
		},
	}

	cmd.Flags().StringVar(&flags.File, "file", "", "record file to read instead of the world's output file")
	cmd.Flags().StringSliceVar(&flags.Series, "series", nil, "columns to plot, as written in the header")
	cmd.Flags().BoolVar(&flags.All, "all", false, "plot every column")
	cmd.Flags().IntVar(&flags.Height, "height", 20, "chart height in lines")
	cmd.Flags().IntVar(&flags.Width, "width", 0, "chart width in columns (0 plots one column per sample)")

	return cmd
}

func (a *app) report(args []string, flags ReportFlags) error {
	if len(args) == 0 && flags.File == "" {
		return errors.New("name a world or pass --file")
	}
	if err := a.setup(config.CLIOverrides{}); err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	path := flags.File
	if path == "" {
		reg, err := a.registry()
		if err != nil {
			return err
		}
		p, err := reg.Resolve(args[0])
		if err != nil {
			return err
		}
		path = a.cfg.OutputPath(p)
	}

	rec, err := replay.Read(path)
	if err != nil {
		return err
	}
	for _, m := range rec.Malformed {
		a.logger.Warn("Skipped malformed row", zap.String("file", path), zap.Error(m))
	}
	if rec.BadCells > 0 {
		a.logger.Warn("Unreadable values plotted as gaps", zap.Int("cells", rec.BadCells))
	}
	if len(rec.Rows) == 0 {
		return fmt.Errorf("%s has no samples, maybe the last recording did not work", path)
	}

	names, err := a.pickSeries(rec.Header, flags)
	if err != nil {
		return err
	}
	series, err := rec.Select(names)
	if err != nil {
		return err
	}

	title := report.Title(len(rec.Rows), a.cfg.Collection.Interval.Duration)
	return report.Chart(a.stdout, title, series, report.Options{Height: flags.Height, Width: flags.Width})
}

func (a *app) pickSeries(header []string, flags ReportFlags) ([]string, error) {
	switch {
	case len(flags.Series) > 0:
		names := make([]string, len(flags.Series))
		for i, s := range flags.Series {
			names[i] = strings.TrimSpace(s)
		}
		return names, nil
	case flags.All || !interactive(a.stdin, a.stdout):
		return header, nil
	}
	return report.Select(header, a.stdin, a.stdout)
}

// interactive reports whether both ends of the session are terminals.
func interactive(in io.Reader, out io.Writer) bool {
	fin, ok1 := in.(*os.File)
	fout, ok2 := out.(*os.File)
	if !ok1 || !ok2 {
		return false
	}
	return term.IsTerminal(int(fin.Fd())) && term.IsTerminal(int(fout.Fd()))
}
