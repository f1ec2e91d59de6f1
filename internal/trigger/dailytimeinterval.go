package trigger

import (
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

// maxDailyDaysSearch bounds how many calendar days dailyTimeIntervalFireTimeAfter
// will scan looking for an allowed weekday before concluding the trigger
// never fires again. A trigger with a finite RepeatCount is scanned from its
// start date, since its earlier fires are counted, so for it the bound counts
// from the start date.
const maxDailyDaysSearch = 3660

// dailyTimeIntervalFireTimeAfter fires within [StartTimeOfDay, EndTimeOfDay]
// on the configured weekdays, stepping by Interval*Unit within each day's
// window.
func dailyTimeIntervalFireTimeAfter(tr *domain.Trigger, after time.Time) (time.Time, bool) {
	s := tr.Schedule.DailyTimeInterval
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	start := tr.StartTime.In(loc)
	after = after.In(loc)

	step := unitDuration(s.Unit, s.Interval)
	if step <= 0 {
		return time.Time{}, false
	}

	day := midnight(start, loc)
	if s.RepeatCount == domain.RepeatIndefinitely && after.After(start) {
		// No repeat limit, so no earlier fires to count: start on after's day.
		day = midnight(after, loc)
	}
	fireCount := 0

	for daysChecked := 0; daysChecked < maxDailyDaysSearch; daysChecked++ {
		if dayAllowed(day, s.DaysOfWeek) {
			windowStart := s.StartTimeOfDay.OnDate(day, loc)
			windowEnd := s.EndTimeOfDay.OnDate(day, loc)

			if !windowEnd.Before(windowStart) {
				for candidate := windowStart; !candidate.After(windowEnd); candidate = candidate.Add(step) {
					if candidate.Before(start) {
						continue
					}
					fireCount++
					if s.RepeatCount != domain.RepeatIndefinitely && fireCount > s.RepeatCount+1 {
						return time.Time{}, false
					}
					if candidate.After(after) {
						return candidate, true
					}
				}
			}
		}
		day = midnight(day.Add(24*time.Hour), loc)
	}
	return time.Time{}, false
}

func unitDuration(unit domain.IntervalUnit, n int) time.Duration {
	switch unit {
	case domain.UnitSecond:
		return time.Duration(n) * time.Second
	case domain.UnitMinute:
		return time.Duration(n) * time.Minute
	case domain.UnitHour:
		return time.Duration(n) * time.Hour
	default:
		return 0
	}
}

func dayAllowed(day time.Time, days [7]bool) bool {
	return days[int(day.Weekday())]
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
