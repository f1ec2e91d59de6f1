package trigger

import (
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

// calendarIntervalFireTimeAfter adds Interval*Unit using calendar
// arithmetic (time.AddDate for day/week/month/year units, so DST
// transitions keep the wall-clock time rather than a fixed duration away).
// Month and year steps are counted from StartTime and keep its day of the
// month; in a month too short for that day the fire lands on the month's
// last day (Jan 31 + 1 month is Feb 28, or Feb 29 in a leap year).
func calendarIntervalFireTimeAfter(tr *domain.Trigger, after time.Time) (time.Time, bool) {
	s := tr.Schedule.CalendarInterval
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	start := tr.StartTime.In(loc)
	after = after.In(loc)
	if after.Before(start) {
		return start, true
	}

	candidate := start
	if fixed, ok := fixedDuration(s.Unit, s.Interval); ok {
		elapsed := after.Sub(start)
		n := elapsed/fixed + 1
		candidate = start.Add(n * fixed)
		for !candidate.After(after) {
			candidate = candidate.Add(fixed)
		}
		return candidate, true
	}

	for k := 1; !candidate.After(after); k++ {
		candidate = addInterval(start, s.Unit, k*s.Interval)
		if (s.Unit == domain.UnitMonth || s.Unit == domain.UnitYear) && candidate.Day() != start.Day() {
			// AddDate overflowed a short month; step back to its last day.
			candidate = candidate.AddDate(0, 0, -candidate.Day())
		}
	}
	return candidate, true
}

// fixedDuration reports the time.Duration equivalent of n*unit when unit is
// a fixed-length unit (second/minute/hour), enabling a direct jump instead
// of stepping one interval at a time.
func fixedDuration(unit domain.IntervalUnit, n int) (time.Duration, bool) {
	switch unit {
	case domain.UnitSecond:
		return time.Duration(n) * time.Second, true
	case domain.UnitMinute:
		return time.Duration(n) * time.Minute, true
	case domain.UnitHour:
		return time.Duration(n) * time.Hour, true
	default:
		return 0, false
	}
}

func addInterval(t time.Time, unit domain.IntervalUnit, n int) time.Time {
	switch unit {
	case domain.UnitSecond:
		return t.Add(time.Duration(n) * time.Second)
	case domain.UnitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case domain.UnitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case domain.UnitDay:
		return t.AddDate(0, 0, n)
	case domain.UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case domain.UnitMonth:
		return t.AddDate(0, n, 0)
	case domain.UnitYear:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}
