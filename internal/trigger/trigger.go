// Package trigger computes the fire-time sequence a Trigger produces: the
// first fire time after its start, and the next fire time strictly after
// any given instant, dispatching on the trigger's schedule kind.
package trigger

import (
	"errors"
	"fmt"
	"time"

	"github.com/quartzgo/quartz/internal/calendar"
	"github.com/quartzgo/quartz/internal/domain"
)

var ErrUnknownScheduleKind = errors.New("trigger: unknown schedule kind")

// maxCalendarSkips bounds how many times a fire time is advanced past a
// calendar exclusion before giving up, so a calendar that excludes
// everything can't spin forever.
const maxCalendarSkips = 10000

// ComputeFirstFireTime returns the trigger's first scheduled fire time, or
// the zero Time and false if the schedule never fires (e.g. it has already
// passed EndTime).
func ComputeFirstFireTime(tr *domain.Trigger, cal calendar.Filter) (time.Time, bool) {
	after := tr.StartTime.Add(-time.Millisecond)
	return FireTimeAfter(tr, after, cal)
}

// FireTimeAfter returns the earliest fire time strictly after `after` that
// respects the trigger's StartTime/EndTime bounds and is not excluded by
// cal (cal may be nil).
func FireTimeAfter(tr *domain.Trigger, after time.Time, cal calendar.Filter) (time.Time, bool) {
	if after.Before(tr.StartTime) {
		after = tr.StartTime.Add(-time.Millisecond)
	}

	candidate, ok := rawFireTimeAfter(tr, after)
	if !ok {
		return time.Time{}, false
	}

	for i := 0; cal != nil && !cal.IsTimeIncluded(candidate); i++ {
		if i >= maxCalendarSkips {
			return time.Time{}, false
		}
		next := cal.GetNextIncludedTime(candidate)
		if next.IsZero() {
			return time.Time{}, false
		}
		candidate, ok = rawFireTimeAfter(tr, next.Add(-time.Millisecond))
		if !ok {
			return time.Time{}, false
		}
	}

	if !tr.EndTime.IsZero() && candidate.After(tr.EndTime) {
		return time.Time{}, false
	}
	return candidate, true
}

// ValidateSchedule rejects a trigger whose schedule can never be evaluated
// correctly, so the store fails the store call synchronously instead of
// later treating an unparseable schedule as silently exhausted (COMPLETE)
// the first time a fire time is computed for it.
func ValidateSchedule(tr *domain.Trigger) error {
	switch tr.Schedule.Kind {
	case domain.ScheduleCron:
		if tr.Schedule.Cron == nil {
			return fmt.Errorf("%w: cron trigger has no cron schedule data", domain.ErrInvalidSchedule)
		}
		if err := ValidateCronExpression(tr.Schedule.Cron.Expression); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
		}
	case domain.ScheduleSimple, domain.ScheduleCalendarInterval, domain.ScheduleDailyTimeInterval:
		// These evaluators only do arithmetic on plain fields (interval,
		// location, time-of-day); there's no external expression syntax
		// that can fail to parse.
	default:
		return fmt.Errorf("%w: unknown schedule kind %v", domain.ErrInvalidSchedule, tr.Schedule.Kind)
	}
	return nil
}

// rawFireTimeAfter dispatches to the schedule-kind-specific evaluator
// without applying calendar exclusion.
func rawFireTimeAfter(tr *domain.Trigger, after time.Time) (time.Time, bool) {
	switch tr.Schedule.Kind {
	case domain.ScheduleSimple:
		return simpleFireTimeAfter(tr, after)
	case domain.ScheduleCron:
		return cronFireTimeAfter(tr, after)
	case domain.ScheduleCalendarInterval:
		return calendarIntervalFireTimeAfter(tr, after)
	case domain.ScheduleDailyTimeInterval:
		return dailyTimeIntervalFireTimeAfter(tr, after)
	default:
		return time.Time{}, false
	}
}

// WillFireAgain reports whether FireTimeAfter would find another fire time
// for this trigger strictly after its current NextFireTime, ignoring
// calendar exclusion.
func WillFireAgain(tr *domain.Trigger) bool {
	after := tr.NextFireTime
	if after.IsZero() {
		after = tr.StartTime.Add(-time.Millisecond)
	}
	_, ok := rawFireTimeAfter(tr, after)
	return ok
}
