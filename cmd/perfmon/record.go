package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobolobo/perfmonitor/internal/config"
	"github.com/bobolobo/perfmonitor/internal/counter"
	"github.com/bobolobo/perfmonitor/internal/history"
	"github.com/bobolobo/perfmonitor/internal/liveness"
	"github.com/bobolobo/perfmonitor/internal/metrics"
	"github.com/bobolobo/perfmonitor/internal/models"
	"github.com/bobolobo/perfmonitor/internal/recorder"
	"github.com/bobolobo/perfmonitor/internal/service"
	"github.com/bobolobo/perfmonitor/internal/stream"
)

// RecordFlags holds flags for the record command.
type RecordFlags struct {
	Interval time.Duration
	Output   string
}

func createRecordCommand(a *app) *cobra.Command {
	flags := &RecordFlags{}
	cmd := &cobra.Command{
		Use:   "record <world> <esf|noesf> <hours>",
		Short: "Record a world's counters for a number of hours",
		Long: `Record samples every counter of the world once per interval and appends
one CSV row per sample. The world's target process must be running.
Interrupting a recording keeps every row written so far.

Examples:
  perfmon record newworld esf 8
  perfmon record audiodgworld noesf 1 --interval 15s --output ./records`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.record(args, *flags)
		},
	}

	cmd.Flags().DurationVar(&flags.Interval, "interval", 0, "sampling interval (must divide an hour)")
	cmd.Flags().StringVar(&flags.Output, "output", "", "directory for the record file")

	return cmd
}

// parseOptional reads the esf/noesf argument.
func parseOptional(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "esf":
		return true, nil
	case "noesf":
		return false, nil
	}
	return false, fmt.Errorf("invalid ESF option %q: use esf or noesf", arg)
}

func parseHours(arg string) (int, error) {
	hours, err := strconv.Atoi(arg)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("invalid number of hours %q: must be a positive integer", arg)
	}
	return hours, nil
}

func (a *app) record(args []string, flags RecordFlags) error {
	includeOptional, err := parseOptional(args[1])
	if err != nil {
		return err
	}
	hours, err := parseHours(args[2])
	if err != nil {
		return err
	}

	if err := a.setup(config.CLIOverrides{Interval: flags.Interval, OutputDir: flags.Output}); err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	reg, err := a.registry()
	if err != nil {
		return err
	}
	p, err := reg.Resolve(args[0])
	if err != nil {
		return err
	}
	if includeOptional && !p.HasOptionalGroup() {
		a.logger.Warn("World has no ESF services, recording without them", zap.String("world", p.ID))
		includeOptional = false
	}
	if err := counter.Validate(p.Columns(includeOptional)); err != nil {
		return err
	}

	plan := recorder.Plan{
		Profile:         p,
		IncludeOptional: includeOptional,
		Interval:        a.cfg.Collection.Interval.Duration,
		MaxTicks:        a.cfg.TicksFor(hours),
	}
	out := a.cfg.OutputPath(p)
	rec := recorder.New(
		counter.NewGopsutil(a.cfg.Collection.ReadTimeout.Duration),
		liveness.Gopsutil{},
		a.logger,
	)

	stopMetrics := a.serveMetrics()
	defer stopMetrics()

	session := func(ctx context.Context) error {
		a.logger.Info("Starting recording",
			zap.String("version", version),
			zap.String("world", p.ID),
			zap.Bool("esf", includeOptional),
			zap.Int("hours", hours),
			zap.Duration("interval", plan.Interval),
			zap.Int("ticks", plan.MaxTicks),
			zap.String("output", out))

		sum, err := rec.Run(ctx, plan, func() (recorder.Sink, error) { return stream.Create(out) })
		sum.Output = out
		if errors.Is(err, recorder.ErrTargetNotRunning) {
			return fmt.Errorf("%w; start %s before recording", err, p.Target)
		}
		if err != nil {
			return err
		}
		a.saveHistory(sum)
		a.printSummary(sum)
		return nil
	}

	if service.IsWindowsService() {
		a.logger.Info("Running as Windows service")
		return service.New(a.logger, session).Run()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.logger.Info("Received signal, stopping recording",
				zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return session(ctx)
}

// serveMetrics starts the Prometheus endpoint when one is configured and
// returns its shutdown function.
func (a *app) serveMetrics() func() {
	addr := a.cfg.Metrics.Listen
	if addr == "" {
		return func() {}
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		a.logger.Warn("Metrics registration failed", zap.Error(err))
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("Metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("Serving metrics", zap.String("listen", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func (a *app) saveHistory(sum models.RunSummary) {
	if a.cfg.History.DSN == "" {
		return
	}
	store, err := history.New(a.cfg.History.DSN)
	if err != nil {
		a.logger.Warn("History unavailable", zap.Error(err))
		return
	}
	defer store.Close()
	if err := store.Record(context.Background(), sum); err != nil {
		a.logger.Warn("Could not save session to history", zap.Error(err))
	}
}

func (a *app) printSummary(sum models.RunSummary) {
	status := "finished"
	if sum.Cancelled {
		status = "stopped early"
	}
	fmt.Fprintf(a.stdout, "Recording of %s %s: %d of %d samples\n", sum.World, status, sum.Ticks, sum.MaxTicks)
	fmt.Fprintf(a.stdout, "Output: %s\n", sum.Output)
	if sum.FailedReads > 0 {
		fmt.Fprintf(a.stdout, "Counter reads recorded as missing: %d\n", sum.FailedReads)
	}
	fmt.Fprintf(a.stdout, "%s (pid %d) restarted %d time(s)\n", sum.Identity.Name, sum.Identity.PID, sum.Restarts)
}
