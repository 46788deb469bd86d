// Package recorder implements the sampling loop: once per tick it reads every
// counter of a world, records failed reads as absent values, checks the target
// process for restarts and appends the row to the record stream.
//
// Counter failures are absorbed inside the loop. Only a failed precondition, a
// stream that cannot be opened or written, or an invalid plan end a session
// with an error. Cancellation ends it gracefully.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bobolobo/perfmonitor/internal/codec"
	"github.com/bobolobo/perfmonitor/internal/counter"
	"github.com/bobolobo/perfmonitor/internal/liveness"
	"github.com/bobolobo/perfmonitor/internal/metrics"
	"github.com/bobolobo/perfmonitor/internal/models"
	"github.com/bobolobo/perfmonitor/internal/profile"
)

// ErrTargetNotRunning is returned when the world's target process is not
// running at session start. No stream is opened in that case.
var ErrTargetNotRunning = errors.New("target process is not running")

// Sink receives the record stream of one session.
type Sink interface {
	WriteHeader(columns []string) error
	Append(row models.SampleRow) error
	Close() error
}

// Opener creates the sink once the precondition holds.
type Opener func() (Sink, error)

// Plan describes one recording session.
type Plan struct {
	Profile         profile.Profile
	IncludeOptional bool
	Interval        time.Duration
	// MaxTicks is authoritative: the session never infers its length from
	// wall-clock time.
	MaxTicks int
}

// Recorder runs sampling sessions.
type Recorder struct {
	reader counter.Reader
	enum   liveness.Enumerator
	logger *zap.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New creates a Recorder reading counters with reader and watching the
// target process through enum.
func New(reader counter.Reader, enum liveness.Enumerator, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		reader: reader,
		enum:   enum,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}
}

// Run executes plan. The returned summary is valid even when an error is
// returned and reflects the rows actually written.
func (r *Recorder) Run(ctx context.Context, plan Plan, open Opener) (models.RunSummary, error) {
	world := plan.Profile.ID
	summary := models.RunSummary{
		World:     world,
		MaxTicks:  plan.MaxTicks,
		StartedAt: r.now(),
	}
	if plan.Interval <= 0 {
		return summary, fmt.Errorf("invalid tick interval %v", plan.Interval)
	}
	if plan.MaxTicks < 0 {
		return summary, fmt.Errorf("invalid tick budget %d", plan.MaxTicks)
	}

	// The tracker's state belongs to this session only.
	tracker := liveness.NewTracker(r.enum, r.logger)
	found, err := tracker.Observe(ctx, plan.Profile.Target)
	if err != nil {
		return summary, fmt.Errorf("looking for %s: %w", plan.Profile.Target, err)
	}
	if !found {
		return summary, fmt.Errorf("%w: %s", ErrTargetNotRunning, plan.Profile.Target)
	}

	cols := plan.Profile.Columns(plan.IncludeOptional)
	header := codec.HeaderFor(cols)

	sink, err := open()
	if err != nil {
		return summary, fmt.Errorf("opening record stream: %w", err)
	}
	loopErr := sink.WriteHeader(header)
	if loopErr == nil {
		loopErr = r.loop(ctx, plan, cols, header, tracker, sink, &summary)
	}
	closeErr := sink.Close()

	summary.Restarts = tracker.Restarts()
	summary.Identity, _ = tracker.Identity()
	summary.EndedAt = r.now()

	if loopErr != nil {
		return summary, loopErr
	}
	if closeErr != nil {
		return summary, fmt.Errorf("closing record stream: %w", closeErr)
	}
	return summary, nil
}

func (r *Recorder) loop(
	ctx context.Context,
	plan Plan,
	cols []profile.CounterRef,
	header []string,
	tracker *liveness.Tracker,
	sink Sink,
	summary *models.RunSummary,
) error {
	world := plan.Profile.ID
	start := r.now()

	for tick := 0; tick < plan.MaxTicks; tick++ {
		if ctx.Err() != nil {
			r.stopped(summary, tick)
			return nil
		}

		row := r.sample(ctx, world, cols, header, summary)

		// Restart detection point.
		if _, err := tracker.Observe(ctx, plan.Profile.Target); err != nil {
			r.logger.Warn("Target lookup failed",
				zap.String("target", plan.Profile.Target),
				zap.Error(err))
		}
		metrics.SetRestarts(world, tracker.Restarts())

		if err := sink.Append(row); err != nil {
			return fmt.Errorf("tick %d: %w", tick+1, err)
		}
		summary.Ticks++
		metrics.IncTick(world)

		id, _ := tracker.Identity()
		r.logger.Info("Recorded tick",
			zap.String("time", row.Timestamp),
			zap.Int("tick", tick+1),
			zap.Int("of", plan.MaxTicks),
			zap.String("name", id.Name),
			zap.Int32("pid", id.PID),
			zap.Int("restarts", tracker.Restarts()),
			zap.Int("missing", row.Missing()))

		if tick == plan.MaxTicks-1 {
			break
		}
		if ctx.Err() != nil {
			r.stopped(summary, tick+1)
			return nil
		}

		next := start.Add(time.Duration(tick+1) * plan.Interval)
		wait := next.Sub(r.now())
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			r.stopped(summary, tick+1)
			return nil
		case <-r.after(wait):
		}
	}
	return nil
}

// sample reads every column once. A failed read leaves an absent value in
// its column and is logged against that exact counter.
func (r *Recorder) sample(
	ctx context.Context,
	world string,
	cols []profile.CounterRef,
	header []string,
	summary *models.RunSummary,
) models.SampleRow {
	now := r.now()
	row := models.SampleRow{
		Time:      now,
		Timestamp: codec.FormatTimestamp(now),
		Values:    make([]models.Value, len(cols)),
	}

	for i, ref := range cols {
		v, err := r.reader.Read(ctx, ref)
		if err != nil {
			row.Values[i] = models.Absent()
			summary.FailedReads++
			metrics.IncReadFailure(world, header[i])

			fields := []zap.Field{
				zap.String("counter", ref.Raw),
				zap.String("column", header[i]),
				zap.Error(err),
			}
			if counter.IsUnavailable(err) {
				r.logger.Warn("Counter not available for interrogation", fields...)
			} else {
				r.logger.Error("Counter read failed", fields...)
			}
			continue
		}
		row.Values[i] = models.PresentValue(v)
		metrics.SetValue(world, header[i], v)
	}
	return row
}

func (r *Recorder) stopped(summary *models.RunSummary, ticks int) {
	summary.Cancelled = true
	r.logger.Info("Recording cancelled, finalizing stream",
		zap.Int("ticks", ticks),
		zap.Int("of", summary.MaxTicks))
}
