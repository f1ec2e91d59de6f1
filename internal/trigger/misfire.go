package trigger

import (
	"time"

	"github.com/quartzgo/quartz/internal/calendar"
	"github.com/quartzgo/quartz/internal/domain"
)

// ApplyMisfire mutates tr in place when its NextFireTime has slipped more
// than threshold behind now, resolving MisfireSmartPolicy to a schedule-kind
// default first. It reports whether tr was changed.
func ApplyMisfire(tr *domain.Trigger, threshold time.Duration, now time.Time, cal calendar.Filter) bool {
	if tr.NextFireTime.IsZero() || !now.After(tr.NextFireTime.Add(threshold)) {
		return false
	}

	switch resolvePolicy(tr) {
	case domain.MisfireIgnore:
		return false

	case domain.MisfireDoNothing:
		next, ok := FireTimeAfter(tr, now, cal)
		if !ok {
			tr.State = domain.StateComplete
			tr.NextFireTime = time.Time{}
			return true
		}
		tr.NextFireTime = next
		return true

	case domain.MisfireFireNow:
		tr.NextFireTime = now
		return true

	case domain.MisfireRescheduleNowWithExistingCount:
		tr.NextFireTime = now
		return true

	case domain.MisfireRescheduleNowWithRemainingCount:
		consumeOneRepeat(tr)
		tr.NextFireTime = now
		return true

	case domain.MisfireRescheduleNextWithExistingCount:
		return rescheduleNext(tr, now, cal)

	case domain.MisfireRescheduleNextWithRemainingCount:
		consumeOneRepeat(tr)
		return rescheduleNext(tr, now, cal)

	default:
		return false
	}
}

func rescheduleNext(tr *domain.Trigger, now time.Time, cal calendar.Filter) bool {
	next, ok := FireTimeAfter(tr, now, cal)
	if !ok {
		tr.State = domain.StateComplete
		tr.NextFireTime = time.Time{}
		return true
	}
	tr.NextFireTime = next
	return true
}

// consumeOneRepeat accounts for the fire that was missed, so a
// remaining-count reschedule doesn't grant the trigger an extra repeat.
func consumeOneRepeat(tr *domain.Trigger) {
	if tr.Schedule.Kind == domain.ScheduleSimple && tr.Schedule.Simple.RepeatCount > 0 {
		tr.Schedule.Simple.RepeatCount--
	}
}

// resolvePolicy returns tr's effective misfire policy, substituting the
// schedule kind's default when the trigger asks for MisfireSmartPolicy.
func resolvePolicy(tr *domain.Trigger) domain.MisfirePolicy {
	if tr.Misfire != domain.MisfireSmartPolicy {
		return tr.Misfire
	}

	switch tr.Schedule.Kind {
	case domain.ScheduleSimple:
		s := tr.Schedule.Simple
		if s.RepeatCount == 0 {
			return domain.MisfireFireNow
		}
		return domain.MisfireRescheduleNowWithRemainingCount
	case domain.ScheduleCron:
		return domain.MisfireFireNow
	case domain.ScheduleCalendarInterval:
		return domain.MisfireRescheduleNowWithExistingCount
	case domain.ScheduleDailyTimeInterval:
		return domain.MisfireFireNow
	default:
		return domain.MisfireFireNow
	}
}
