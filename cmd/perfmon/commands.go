package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bobolobo/perfmonitor/internal/config"
	"github.com/bobolobo/perfmonitor/internal/history"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	idStyle     = lipgloss.NewStyle().Width(14)
	targetStyle = lipgloss.NewStyle().Width(40)
	countStyle  = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	fileStyle   = lipgloss.NewStyle().PaddingLeft(2)
	timeStyle   = lipgloss.NewStyle().Width(18)
)

func createWorldsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worlds",
		Short: "List the worlds that can be recorded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(config.CLIOverrides{}); err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}

			var b strings.Builder
			b.WriteString(headerStyle.Render(
				idStyle.Render("WORLD")+targetStyle.Render("TARGET")+
					countStyle.Render("COUNTERS")+countStyle.Render("ESF")+fileStyle.Render("FILE")) + "\n")
			for _, id := range reg.IDs() {
				p, err := reg.Resolve(id)
				if err != nil {
					return err
				}
				b.WriteString(idStyle.Render(p.ID) + targetStyle.Render(p.Target) +
					countStyle.Render(strconv.Itoa(len(p.Counters()))) +
					countStyle.Render(strconv.Itoa(len(p.OptionalGroup()))) +
					fileStyle.Render(a.cfg.OutputPath(p)) + "\n")
			}
			_, err = fmt.Fprint(a.stdout, b.String())
			return err
		},
	}
}

func createHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past recording sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(config.CLIOverrides{}); err != nil {
				return err
			}
			if a.cfg.History.DSN == "" {
				return errors.New("history is disabled: set history.dsn or PERFMON_HISTORY_DSN")
			}
			return a.history(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of sessions to show (0 for all)")
	return cmd
}

func (a *app) history(ctx context.Context, limit int) error {
	store, err := history.New(a.cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(
		timeStyle.Render("STARTED")+idStyle.Render("WORLD")+countStyle.Render("SAMPLES")+
			countStyle.Render("MISSING")+countStyle.Render("RESTARTS")+fileStyle.Render("OUTPUT")) + "\n")
	for _, s := range sessions {
		samples := fmt.Sprintf("%d/%d", s.Ticks, s.MaxTicks)
		if s.Cancelled {
			samples += "*"
		}
		b.WriteString(timeStyle.Render(s.StartedAt.Format("2006-01-02 15:04")) + idStyle.Render(s.World) +
			countStyle.Render(samples) + countStyle.Render(strconv.Itoa(s.FailedReads)) +
			countStyle.Render(strconv.Itoa(s.Restarts)) + fileStyle.Render(s.Output) + "\n")
	}
	_, err = fmt.Fprint(a.stdout, b.String())
	return err
}

func createConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config <path>",
		Short: "Write the effective configuration to a YAML file",
		Long: `Config writes the configuration perfmon would use, after defaults, the
embedded file, the config file and environment overrides, so it can be
edited and passed back with --config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(config.CLIOverrides{}); err != nil {
				return err
			}
			if err := config.WriteConfig(a.cfg, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(a.stdout, "Wrote %s\n", args[0])
			return err
		},
	}
}
