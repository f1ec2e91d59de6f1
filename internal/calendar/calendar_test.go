package calendar

import (
	"testing"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

func mustBuild(t *testing.T, cal *domain.Calendar, resolve Resolver) Filter {
	t.Helper()
	f, err := Build(cal, resolve)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return f
}

func TestWeeklyExcludesWeekend(t *testing.T) {
	cal := &domain.Calendar{
		Name: "weekends",
		Kind: domain.CalendarWeekly,
		Weekly: &domain.WeeklyCalendarData{
			ExcludedDays: [7]bool{true, false, false, false, false, false, true},
		},
	}
	f := mustBuild(t, cal, noResolve)

	sat := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if f.IsTimeIncluded(sat) {
		t.Fatalf("expected Saturday to be excluded")
	}

	mon := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	if !f.IsTimeIncluded(mon) {
		t.Fatalf("expected Monday to be included")
	}

	next := f.GetNextIncludedTime(sat)
	if next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		t.Fatalf("GetNextIncludedTime returned an excluded day: %v", next)
	}
}

func TestAnnualExcludesFixedDate(t *testing.T) {
	cal := &domain.Calendar{
		Name:   "newyear",
		Kind:   domain.CalendarAnnual,
		Annual: &domain.AnnualCalendarData{ExcludedDays: [][2]int{{1, 1}}},
	}
	f := mustBuild(t, cal, noResolve)

	jan1 := time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC)
	if f.IsTimeIncluded(jan1) {
		t.Fatalf("expected Jan 1 to be excluded in every year")
	}
	jan1NextYear := time.Date(2028, 1, 1, 9, 0, 0, 0, time.UTC)
	if f.IsTimeIncluded(jan1NextYear) {
		t.Fatalf("expected annual exclusion to recur")
	}
}

func TestDailyWindowExcludesLunch(t *testing.T) {
	cal := &domain.Calendar{
		Name: "lunch",
		Kind: domain.CalendarDaily,
		Daily: &domain.DailyCalendarData{
			Start: domain.TimeOfDay{Hour: 12, Minute: 0},
			End:   domain.TimeOfDay{Hour: 13, Minute: 0},
		},
	}
	f := mustBuild(t, cal, noResolve)

	noon := time.Date(2026, 8, 3, 12, 30, 0, 0, time.UTC)
	if f.IsTimeIncluded(noon) {
		t.Fatalf("expected noon to be excluded")
	}

	morning := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	if !f.IsTimeIncluded(morning) {
		t.Fatalf("expected morning to be included")
	}

	next := f.GetNextIncludedTime(noon)
	if next.Before(time.Date(2026, 8, 3, 13, 0, 1, 0, time.UTC)) {
		t.Fatalf("expected next included time after the window closes, got %v", next)
	}
}

func TestChainedBaseCalendar(t *testing.T) {
	weekends := &domain.Calendar{
		Name: "weekends",
		Kind: domain.CalendarWeekly,
		Weekly: &domain.WeeklyCalendarData{
			ExcludedDays: [7]bool{true, false, false, false, false, false, true},
		},
	}
	holidays := &domain.Calendar{
		Name:     "holidays",
		Kind:     domain.CalendarHoliday,
		BaseName: "weekends",
		Holiday: &domain.HolidayCalendarData{
			ExcludedDates: []time.Time{time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)},
		},
	}

	resolve := func(name string) (*domain.Calendar, bool) {
		if name == "weekends" {
			return weekends, true
		}
		return nil, false
	}
	f := mustBuild(t, holidays, resolve)

	mon := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	if f.IsTimeIncluded(mon) {
		t.Fatalf("expected the explicitly excluded Monday to be excluded")
	}
	sat := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if f.IsTimeIncluded(sat) {
		t.Fatalf("expected base-excluded Saturday to remain excluded")
	}
	tue := time.Date(2026, 8, 4, 12, 0, 0, 0, time.UTC)
	if !f.IsTimeIncluded(tue) {
		t.Fatalf("expected Tuesday to be included")
	}
}

func noResolve(string) (*domain.Calendar, bool) { return nil, false }
