// Package metrics exposes recording sessions as Prometheus metrics so a long
// unattended recording can be watched while it runs.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level collectors. They are registered via Register.
var (
	regOK atomic.Bool

	ticks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perfmon",
			Subsystem: "recorder",
			Name:      "ticks_total",
			Help:      "Number of sample rows appended to the record stream.",
		}, []string{"world"},
	)
	readFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perfmon",
			Subsystem: "recorder",
			Name:      "counter_failures_total",
			Help:      "Number of counter reads that failed and were recorded as absent.",
		}, []string{"world", "column"},
	)
	restarts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "perfmon",
			Subsystem: "target",
			Name:      "restarts",
			Help:      "Number of pid changes observed for the world's target process in the current session.",
		}, []string{"world"},
	)
	counterValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "perfmon",
			Subsystem: "counter",
			Name:      "value_bytes",
			Help:      "Last value read for a counter column.",
		}, []string{"world", "column"},
	)
)

// Register registers all collectors with r. Calls after a successful one are
// no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	for _, c := range []prometheus.Collector{ticks, readFailures, restarts, counterValue} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves the default gatherer.
func Handler() http.Handler { return promhttp.Handler() }

// The helpers below no-op until Register has been called.

// IncTick counts one appended row.
func IncTick(world string) {
	if regOK.Load() {
		ticks.WithLabelValues(world).Inc()
	}
}

// IncReadFailure counts one absent value.
func IncReadFailure(world, column string) {
	if regOK.Load() {
		readFailures.WithLabelValues(world, column).Inc()
	}
}

// SetRestarts publishes the session's restart count.
func SetRestarts(world string, n int) {
	if regOK.Load() {
		restarts.WithLabelValues(world).Set(float64(n))
	}
}

// SetValue publishes the last value read for a column.
func SetValue(world, column string, v float64) {
	if regOK.Load() {
		counterValue.WithLabelValues(world, column).Set(v)
	}
}
