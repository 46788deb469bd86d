// Package liveness tracks whether a world's target process is running and how
// many times its pid has changed during a recording session.
package liveness

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bobolobo/perfmonitor/internal/models"
)

// State is the liveness state of one session. It is never reset mid-run.
type State struct {
	TrackedName string
	PID         int32
	Known       bool
	Restarts    int
}

// Tracker owns the State for a single session; it is not safe for concurrent
// use and must not be shared across sessions.
type Tracker struct {
	enum   Enumerator
	logger *zap.Logger
	state  State
}

// NewTracker returns a tracker with empty state.
func NewTracker(enum Enumerator, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{enum: enum, logger: logger}
}

// Observe scans the process list for a name containing name. The first match
// in enumeration order is taken. The first successful observation records the
// match; any later match with a different pid counts as a restart. Entries
// whose name cannot be read are skipped.
func (t *Tracker) Observe(ctx context.Context, name string) (bool, error) {
	procs, err := t.enum.Processes(ctx)
	if err != nil {
		return false, err
	}

	for _, p := range procs {
		procName, err := p.Name(ctx)
		if err != nil {
			t.logger.Debug("Skipping unreadable process entry",
				zap.Int32("pid", p.PID()),
				zap.Error(err))
			continue
		}
		if !strings.Contains(procName, name) {
			continue
		}

		pid := p.PID()
		switch {
		case !t.state.Known:
			t.state.TrackedName = procName
			t.state.PID = pid
			t.state.Known = true
		case t.state.PID != pid:
			t.state.Restarts++
			t.logger.Warn("Target process restarted",
				zap.String("name", procName),
				zap.Int32("old_pid", t.state.PID),
				zap.Int32("new_pid", pid),
				zap.Int("restarts", t.state.Restarts))
			t.state.PID = pid
		}
		return true, nil
	}
	return false, nil
}

// Restarts returns how many pid changes have been observed.
func (t *Tracker) Restarts() int { return t.state.Restarts }

// Identity returns the tracked process, if one has been observed.
func (t *Tracker) Identity() (models.Identity, bool) {
	if !t.state.Known {
		return models.Identity{}, false
	}
	return models.Identity{Name: t.state.TrackedName, PID: t.state.PID}, true
}

// State returns a copy of the current state.
func (t *Tracker) State() State { return t.state }
