// Package metrics exposes reconciliation outcomes to Prometheus.
package metrics

import (
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hrflow"

// Collector records run and day outcomes.
type Collector struct {
	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	days           *prometheus.CounterVec
	dayFailures    prometheus.Counter
	permissionUsed prometheus.Counter
}

var _ service.Observer = (*Collector)(nil)

// New registers the attendance collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "runs_total",
			Help:      "Reconciliation runs by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "run_duration_seconds",
			Help:      "Wall time of reconciliation runs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}, []string{"trigger"}),
		days: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "days_total",
			Help:      "Attendance days written, by status.",
		}, []string{"status"}),
		dayFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "day_failures_total",
			Help:      "Employee days that could not be reconciled.",
		}),
		permissionUsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "permission_hours_consumed_total",
			Help:      "Permission quota hours consumed by reconciliation.",
		}),
	}
}

// RunFinished counts a run and observes its duration. Skipped runs go through RunSkipped.
func (c *Collector) RunFinished(trigger, outcome string, elapsed time.Duration) {
	c.runs.WithLabelValues(trigger, outcome).Inc()
	c.runDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

// RunSkipped counts a run dropped by the overlap guard.
func (c *Collector) RunSkipped(trigger string) {
	c.runs.WithLabelValues(trigger, "skipped").Inc()
}

func (c *Collector) DayRecorded(status string) {
	c.days.WithLabelValues(status).Inc()
}

func (c *Collector) DayFailed() {
	c.dayFailures.Inc()
}

// PermissionConsumed adds hours taken from the quota. Credits are not subtracted.
func (c *Collector) PermissionConsumed(hours float64) {
	if hours > 0 {
		c.permissionUsed.Add(hours)
	}
}
