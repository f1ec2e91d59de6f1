// Package calendar implements the exclusion-filter variants that a Trigger
// may reference by name: a calendar marks instants as excluded, and the
// trigger evaluator skips forward past them when computing fire times.
package calendar

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quartzgo/quartz/internal/domain"
)

// Filter is the behavior every concrete calendar variant implements. A
// Filter may chain onto a base Filter: a time is included only if it is
// included by both this filter and its base.
type Filter interface {
	// IsTimeIncluded reports whether t is NOT excluded by this calendar
	// (and, transitively, by its base calendar).
	IsTimeIncluded(t time.Time) bool

	// GetNextIncludedTime returns an instant strictly after t that
	// IsTimeIncluded accepts. Candidates are stepped at the variant's own
	// granularity (start of day for the day-based variants, one second for
	// the daily window, one minute for cron), so the result is not always
	// the earliest included instant.
	GetNextIncludedTime(t time.Time) time.Time
}

// Resolver looks up a named calendar, used to materialize a BaseName chain.
type Resolver func(name string) (*domain.Calendar, bool)

// Build compiles a persisted Calendar (and, transitively, its base chain)
// into a live Filter.
func Build(cal *domain.Calendar, resolve Resolver) (Filter, error) {
	if cal == nil {
		return nil, nil
	}

	var base Filter
	if cal.BaseName != "" {
		baseCal, ok := resolve(cal.BaseName)
		if !ok {
			return nil, fmt.Errorf("calendar: base calendar %q not found", cal.BaseName)
		}
		b, err := Build(baseCal, resolve)
		if err != nil {
			return nil, err
		}
		base = b
	}

	switch cal.Kind {
	case domain.CalendarAnnual:
		if cal.Annual == nil {
			return nil, fmt.Errorf("calendar: %q declares kind Annual with no data", cal.Name)
		}
		return &annual{base: base, days: cal.Annual.ExcludedDays}, nil
	case domain.CalendarWeekly:
		if cal.Weekly == nil {
			return nil, fmt.Errorf("calendar: %q declares kind Weekly with no data", cal.Name)
		}
		return &weekly{base: base, excluded: cal.Weekly.ExcludedDays}, nil
	case domain.CalendarMonthly:
		if cal.Monthly == nil {
			return nil, fmt.Errorf("calendar: %q declares kind Monthly with no data", cal.Name)
		}
		return &monthly{base: base, excluded: cal.Monthly.ExcludedDays}, nil
	case domain.CalendarDaily:
		if cal.Daily == nil {
			return nil, fmt.Errorf("calendar: %q declares kind Daily with no data", cal.Name)
		}
		return &daily{base: base, data: *cal.Daily}, nil
	case domain.CalendarCron:
		if cal.Cron == nil {
			return nil, fmt.Errorf("calendar: %q declares kind Cron with no data", cal.Name)
		}
		sched, err := cron.ParseStandard(cal.Cron.Expression)
		if err != nil {
			return nil, fmt.Errorf("calendar: %q cron expression: %w", cal.Name, err)
		}
		loc := cal.Cron.Location
		if loc == nil {
			loc = time.UTC
		}
		return &cronCalendar{base: base, schedule: sched, loc: loc}, nil
	case domain.CalendarHoliday:
		if cal.Holiday == nil {
			return nil, fmt.Errorf("calendar: %q declares kind Holiday with no data", cal.Name)
		}
		set := make(map[holidayKey]struct{}, len(cal.Holiday.ExcludedDates))
		for _, d := range cal.Holiday.ExcludedDates {
			set[dateKey(d)] = struct{}{}
		}
		return &holiday{base: base, dates: set}, nil
	default:
		return nil, fmt.Errorf("calendar: %q has unknown kind %d", cal.Name, cal.Kind)
	}
}

func includedByBase(base Filter, t time.Time) bool {
	return base == nil || base.IsTimeIncluded(t)
}

// nextFromBase asks the base for its next included time after t (or returns
// t unchanged when there is no base); callers re-check their own exclusion
// on whatever this returns.
func nextFromBase(base Filter, t time.Time) time.Time {
	if base == nil {
		return t
	}
	return base.GetNextIncludedTime(t)
}

type holidayKey struct {
	y int
	m time.Month
	d int
}

func dateKey(t time.Time) holidayKey {
	return holidayKey{t.Year(), t.Month(), t.Day()}
}
