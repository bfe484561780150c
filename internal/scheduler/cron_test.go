package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/store"
)

func TestNextRunCronComputesNextOccurrence(t *testing.T) {
	after := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	next, err := NextRun(store.ScheduleCron, "0 9 * * *", "UTC", after)
	require.NoError(t, err)
	assert.Equal(t, 2026, next.Year())
	assert.Equal(t, time.July, next.Month())
	assert.Equal(t, 31, next.Day())
	assert.Equal(t, 9, next.Hour())
}

func TestNextRunCronRejectsInvalidExpression(t *testing.T) {
	_, err := NextRun(store.ScheduleCron, "not a cron", "UTC", time.Now())
	assert.Error(t, err)
}

func TestNextRunIntervalAddsMilliseconds(t *testing.T) {
	after := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	next, err := NextRun(store.ScheduleInterval, "5400000", "UTC", after)
	require.NoError(t, err)
	assert.Equal(t, after.Add(90*time.Minute), next)
}

func TestNextRunIntervalRejectsNonPositive(t *testing.T) {
	_, err := NextRun(store.ScheduleInterval, "0", "UTC", time.Now())
	assert.Error(t, err)
}

func TestNextRunIntervalRejectsGoDurationSyntax(t *testing.T) {
	_, err := NextRun(store.ScheduleInterval, "1h30m", "UTC", time.Now())
	assert.Error(t, err, "schedule_value is a millisecond count, not a Go duration string")
}

func TestNextRunOnceRejectsPastTimestamp(t *testing.T) {
	after := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	past := after.Add(-time.Hour).Format(time.RFC3339)
	_, err := NextRun(store.ScheduleOnce, past, "UTC", after)
	assert.Error(t, err)
}

func TestNextRunOnceAcceptsFutureTimestamp(t *testing.T) {
	after := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	future := after.Add(time.Hour)
	next, err := NextRun(store.ScheduleOnce, future.Format(time.RFC3339), "UTC", after)
	require.NoError(t, err)
	assert.True(t, next.Equal(future))
}

func TestNextRunRejectsInvalidTimezone(t *testing.T) {
	_, err := NextRun(store.ScheduleCron, "0 9 * * *", "Not/AZone", time.Now())
	assert.Error(t, err)
}
