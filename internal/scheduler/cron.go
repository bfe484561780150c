// Package scheduler implements the persistent task scheduler (C7): it
// computes a task's next fire time from its schedule, and wakes
// periodically to materialize due tasks into Container Runner invocations.
package scheduler

import (
	"strconv"
	"time"

	"github.com/adhocore/gronx"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

// NextRun computes the next fire time for a task's schedule, evaluated in
// the given IANA timezone, strictly after the reference time after.
// schedule_task and the scheduler's own re-arm both call this, so a task's
// next_run is always computed the same way regardless of caller.
func NextRun(scheduleType store.ScheduleType, value string, tz string, after time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "scheduler: invalid timezone %q", tz)
	}

	switch scheduleType {
	case store.ScheduleCron:
		if !gronx.IsValid(value) {
			return time.Time{}, errors.Errorf("scheduler: invalid cron expression %q", value)
		}
		next, err := gronx.NextTickAfter(value, after.In(loc), false)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "scheduler: compute next tick for %q", value)
		}
		return next, nil

	case store.ScheduleInterval:
		// schedule_value is a millisecond count (spec §3/§4.7: "interval by
		// adding the millisecond value to now"), not a Go duration string.
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "scheduler: invalid interval %q", value)
		}
		if ms <= 0 {
			return time.Time{}, errors.Errorf("scheduler: interval must be positive, got %q", value)
		}
		return after.Add(time.Duration(ms) * time.Millisecond), nil

	case store.ScheduleOnce:
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "scheduler: invalid once timestamp %q", value)
		}
		if !t.After(after) {
			return time.Time{}, errors.Errorf("scheduler: once timestamp %q is not in the future", value)
		}
		return t, nil

	default:
		return time.Time{}, errors.Errorf("scheduler: unknown schedule type %q", scheduleType)
	}
}
