// Package counter reads per-process performance counters.
//
// A read that fails because the counter is not currently instrumentable (the
// process instance is gone, the platform cannot supply the metric) returns an
// *UnavailableError. Callers sampling on a schedule treat that as a missing
// value for one tick, never as a session failure.
package counter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bobolobo/perfmonitor/internal/profile"
)

// ErrUnavailable is matched by every *UnavailableError.
var ErrUnavailable = errors.New("counter unavailable")

// Reader reads the current value of one counter.
type Reader interface {
	Read(ctx context.Context, ref profile.CounterRef) (float64, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, ref profile.CounterRef) (float64, error)

// Read calls f.
func (f ReaderFunc) Read(ctx context.Context, ref profile.CounterRef) (float64, error) {
	return f(ctx, ref)
}

// UnavailableError reports a transient, per-counter read failure.
type UnavailableError struct {
	Ref profile.CounterRef
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("counter %s unavailable: %v", e.Ref.Raw, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnavailable) hold for any UnavailableError.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Unavailable wraps err as an UnavailableError for ref.
func Unavailable(ref profile.CounterRef, err error) error {
	return &UnavailableError{Ref: ref, Err: err}
}

// IsUnavailable reports whether err is a recoverable counter failure.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// Metric names understood by the gopsutil reader, keyed by their normalized
// form (lower case, no whitespace).
const (
	PrivateBytes      = "privatebytes"
	VirtualBytes      = "virtualbytes"
	WorkingSet        = "workingset"
	WorkingSetPrivate = "workingset-private"
	PageFileBytes     = "pagefilebytes"
)

var errNotOnThisPlatform = errors.New("metric not supported on this platform")

var knownMetrics = map[string]bool{
	PrivateBytes:      true,
	VirtualBytes:      true,
	WorkingSet:        true,
	WorkingSetPrivate: true,
	PageFileBytes:     true,
}

func metricKey(metric string) string {
	return strings.ToLower(strings.Join(strings.Fields(metric), ""))
}

// Validate checks that every ref names a metric this package knows how to
// read. Whether the current platform can supply it is only known at read time.
func Validate(refs []profile.CounterRef) error {
	var unknown []string
	for _, r := range refs {
		if !knownMetrics[metricKey(r.Metric())] {
			unknown = append(unknown, r.Raw)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown counter metrics: %s", strings.Join(unknown, ", "))
	}
	return nil
}
