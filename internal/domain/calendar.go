package domain

import (
	"encoding/json"
	"time"
)

// CalendarKind discriminates the polymorphic Calendar variant.
type CalendarKind int

const (
	CalendarAnnual CalendarKind = iota
	CalendarWeekly
	CalendarMonthly
	CalendarDaily
	CalendarCron
	CalendarHoliday
)

// Calendar is metadata describing an exclusion filter; the actual
// isTimeIncluded/getNextIncludedTime behavior lives on the concrete types in
// package calendar, which implement the Filter interface declared there.
// This struct is the persisted/transmitted shape.
type Calendar struct {
	Name        string
	Kind        CalendarKind
	Description string
	BaseName    string // name of the calendar this one chains onto, "" if none

	// Variant payloads; exactly one populated per Kind.
	Annual  *AnnualCalendarData
	Weekly  *WeeklyCalendarData
	Monthly *MonthlyCalendarData
	Daily   *DailyCalendarData
	Cron    *CronCalendarData
	Holiday *HolidayCalendarData
}

// AnnualCalendarData excludes a set of (month, day) pairs every year.
type AnnualCalendarData struct {
	ExcludedDays [][2]int // [month, day]
}

// WeeklyCalendarData excludes a set of weekdays (0=Sunday .. 6=Saturday).
type WeeklyCalendarData struct {
	ExcludedDays [7]bool
}

// MonthlyCalendarData excludes a set of days-of-month (1..31).
type MonthlyCalendarData struct {
	ExcludedDays [32]bool
}

// DailyCalendarData excludes a time-of-day window, applied every day.
type DailyCalendarData struct {
	Start, End   TimeOfDay
	InvertWindow bool // if true, only times INSIDE [Start,End] are included
}

// CronCalendarData excludes instants matched by a cron expression.
type CronCalendarData struct {
	Expression string
	Location   *time.Location
}

func (c CronCalendarData) MarshalJSON() ([]byte, error) {
	return json.Marshal(cronCalendarWire{Expression: c.Expression, Location: locationName(c.Location)})
}

func (c *CronCalendarData) UnmarshalJSON(b []byte) error {
	var w cronCalendarWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	loc, err := loadLocation(w.Location)
	if err != nil {
		return err
	}
	c.Expression, c.Location = w.Expression, loc
	return nil
}

type cronCalendarWire struct {
	Expression string
	Location   string
}

// HolidayCalendarData excludes a fixed set of whole calendar days.
type HolidayCalendarData struct {
	ExcludedDates []time.Time // truncated to midnight, compared by Y/M/D
}
