package trigger

import (
	"testing"
	"time"

	"github.com/quartzgo/quartz/internal/calendar"
	"github.com/quartzgo/quartz/internal/domain"
)

func TestSimpleFireTimeAfterIsMonotonic(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{StartTime: start},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: time.Minute, RepeatCount: domain.RepeatIndefinitely},
		},
	}

	prev := start.Add(-time.Millisecond)
	for i := 0; i < 50; i++ {
		next, ok := FireTimeAfter(tr, prev, nil)
		if !ok {
			t.Fatalf("iteration %d: expected a fire time", i)
		}
		if !next.After(prev) {
			t.Fatalf("iteration %d: fire time %v did not advance past %v", i, next, prev)
		}
		prev = next
	}
}

func TestSimpleFireTimeAfterRespectsRepeatCount(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{StartTime: start},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: time.Minute, RepeatCount: 2},
		},
	}

	after := start.Add(-time.Millisecond)
	var last time.Time
	count := 0
	for {
		next, ok := FireTimeAfter(tr, after, nil)
		if !ok {
			break
		}
		last = next
		after = next
		count++
		if count > 10 {
			t.Fatalf("trigger fired more than expected, repeat count should bound it")
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 total fires (initial + 2 repeats), got %d", count)
	}
	if !last.Equal(start.Add(2 * time.Minute)) {
		t.Fatalf("expected last fire at %v, got %v", start.Add(2*time.Minute), last)
	}
}

func TestCalendarIntervalMonthlyHandlesMonthBoundary(t *testing.T) {
	start := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{StartTime: start},
		Schedule: domain.Schedule{
			Kind: domain.ScheduleCalendarInterval,
			CalendarInterval: &domain.CalendarIntervalSchedule{
				Interval: 1,
				Unit:     domain.UnitMonth,
				Location: time.UTC,
			},
		},
	}

	next, ok := FireTimeAfter(tr, start, nil)
	if !ok {
		t.Fatalf("expected a fire time")
	}
	// February 2026 has no 31st, so the fire lands on its last day instead
	// of overflowing into March.
	if next.Month() == time.February && next.Day() == 31 {
		t.Fatalf("did not expect an invalid calendar date, got %v", next)
	}
	if want := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestDailyTimeIntervalStaysWithinWindow(t *testing.T) {
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC) // Monday
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{StartTime: start},
		Schedule: domain.Schedule{
			Kind: domain.ScheduleDailyTimeInterval,
			DailyTimeInterval: &domain.DailyTimeIntervalSchedule{
				StartTimeOfDay: domain.TimeOfDay{Hour: 9},
				EndTimeOfDay:   domain.TimeOfDay{Hour: 17},
				DaysOfWeek:     [7]bool{false, true, true, true, true, true, false},
				Interval:       1,
				Unit:           domain.UnitHour,
				RepeatCount:    domain.RepeatIndefinitely,
				Location:       time.UTC,
			},
		},
	}

	after := start.Add(-time.Millisecond)
	for i := 0; i < 20; i++ {
		next, ok := FireTimeAfter(tr, after, nil)
		if !ok {
			t.Fatalf("iteration %d: expected a fire time", i)
		}
		if next.Hour() < 9 || next.Hour() > 17 {
			t.Fatalf("iteration %d: fire time %v fell outside the daily window", i, next)
		}
		if next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			t.Fatalf("iteration %d: fire time %v fell on an excluded weekday", i, next)
		}
		after = next
	}
}

func TestValidateScheduleRejectsBadCronExpression(t *testing.T) {
	tr := &domain.Trigger{
		Schedule: domain.Schedule{
			Kind: domain.ScheduleCron,
			Cron: &domain.CronSchedule{Expression: "not a cron expression", Location: time.UTC},
		},
	}
	if err := ValidateSchedule(tr); err == nil {
		t.Fatal("expected an error for an unparseable cron expression")
	}
}

func TestValidateScheduleAcceptsGoodCronExpression(t *testing.T) {
	tr := &domain.Trigger{
		Schedule: domain.Schedule{
			Kind: domain.ScheduleCron,
			Cron: &domain.CronSchedule{Expression: "0 */5 * * * *", Location: time.UTC},
		},
	}
	if err := ValidateSchedule(tr); err != nil {
		t.Fatalf("expected a valid expression to pass, got %v", err)
	}
}

func TestApplyMisfireFireNow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			StartTime:    now.Add(-time.Hour),
			NextFireTime: now.Add(-10 * time.Minute),
			Misfire:      domain.MisfireFireNow,
		},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: time.Minute, RepeatCount: domain.RepeatIndefinitely},
		},
	}

	changed := ApplyMisfire(tr, time.Minute, now, nil)
	if !changed {
		t.Fatalf("expected misfire to be detected and applied")
	}
	if !tr.NextFireTime.Equal(now) {
		t.Fatalf("expected FireNow to reset NextFireTime to now, got %v", tr.NextFireTime)
	}
}

// TestFireTimeAfterJumpsCalendarGapsViaGetNextIncludedTime pins down that a
// wide exclusion window combined with a fine-grained schedule resolves by
// calling the calendar's GetNextIncludedTime to jump forward, not by
// single-stepping the raw schedule (which would need tens of thousands of
// ticks to cross a multi-day gap and would hit maxCalendarSkips first).
func TestFireTimeAfterJumpsCalendarGapsViaGetNextIncludedTime(t *testing.T) {
	weekends := &domain.Calendar{
		Name: "weekends",
		Kind: domain.CalendarWeekly,
		Weekly: &domain.WeeklyCalendarData{
			ExcludedDays: [7]bool{true, false, false, false, false, false, true},
		},
	}
	f, err := calendar.Build(weekends, func(string) (*domain.Calendar, bool) { return nil, false })
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Friday 23:59:59, one second before Saturday's exclusion window
	// begins. A per-second trigger needs >170,000 raw ticks to cross a
	// full weekend; maxCalendarSkips is 10000.
	fri := time.Date(2026, 8, 7, 23, 59, 59, 0, time.UTC)
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{StartTime: fri.Add(-24 * time.Hour)},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: time.Second, RepeatCount: domain.RepeatIndefinitely},
		},
	}

	next, ok := FireTimeAfter(tr, fri, f)
	if !ok {
		t.Fatalf("expected a fire time across the weekend gap")
	}
	if next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		t.Fatalf("expected next fire time to land on a weekday, got %v (%v)", next, next.Weekday())
	}
	if next.Year() != 2026 || next.Month() != time.August || next.Day() != 10 {
		t.Fatalf("expected the very next weekday (Monday Aug 10), got %v", next)
	}
}

func TestApplyMisfireWithinThresholdIsNoop(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			StartTime:    now.Add(-time.Hour),
			NextFireTime: now.Add(-time.Second),
			Misfire:      domain.MisfireFireNow,
		},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: time.Minute, RepeatCount: domain.RepeatIndefinitely},
		},
	}

	if ApplyMisfire(tr, time.Minute, now, nil) {
		t.Fatalf("expected no misfire within threshold")
	}
}
