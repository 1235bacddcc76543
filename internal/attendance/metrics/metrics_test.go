package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.RunFinished("backfill", "success", 2*time.Second)
	c.RunFinished("backfill", "partial", time.Second)
	c.RunSkipped("scheduled")
	c.DayRecorded("Present")
	c.DayRecorded("Present")
	c.DayRecorded("Absent")
	c.DayFailed()
	c.PermissionConsumed(2)
	c.PermissionConsumed(-1)
	c.PermissionConsumed(0.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("backfill", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("scheduled", "skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.days.WithLabelValues("Present")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dayFailures))
	assert.Equal(t, 2.5, testutil.ToFloat64(c.permissionUsed))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP hrflow_attendance_days_total Attendance days written, by status.
# TYPE hrflow_attendance_days_total counter
hrflow_attendance_days_total{status="Absent"} 1
hrflow_attendance_days_total{status="Present"} 2
`), "hrflow_attendance_days_total")
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(c.runDuration))
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
