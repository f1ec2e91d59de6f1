package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrTriggerNotFound      = errors.New("domain: trigger not found")
	ErrTriggerAlreadyExists = errors.New("domain: trigger already exists")
	ErrInvalidSchedule      = errors.New("domain: invalid schedule")
	ErrInvalidMisfirePolicy = errors.New("domain: misfire policy not valid for this trigger type")
)

// State is a trigger's position in the lifecycle state machine.
type State string

const (
	StateWaiting       State = "WAITING"
	StateAcquired      State = "ACQUIRED"
	StateExecuting     State = "EXECUTING"
	StateComplete      State = "COMPLETE"
	StatePaused        State = "PAUSED"
	StatePausedBlocked State = "PAUSED_BLOCKED"
	StateBlocked       State = "BLOCKED"
	StateError         State = "ERROR"
)

// MisfirePolicy selects how a trigger recovers a fire time that slipped
// beyond the scheduler's misfire threshold.
type MisfirePolicy int

const (
	MisfireSmartPolicy MisfirePolicy = iota
	MisfireFireNow
	MisfireDoNothing
	MisfireIgnore
	MisfireRescheduleNextWithRemainingCount
	MisfireRescheduleNowWithRemainingCount
	MisfireRescheduleNowWithExistingCount
	MisfireRescheduleNextWithExistingCount
)

var misfirePolicyNames = map[MisfirePolicy]string{
	MisfireSmartPolicy:                      "smart",
	MisfireFireNow:                          "fire_now",
	MisfireDoNothing:                        "do_nothing",
	MisfireIgnore:                           "ignore",
	MisfireRescheduleNextWithRemainingCount: "reschedule_next_remaining",
	MisfireRescheduleNowWithRemainingCount:  "reschedule_now_remaining",
	MisfireRescheduleNowWithExistingCount:   "reschedule_now_existing",
	MisfireRescheduleNextWithExistingCount:  "reschedule_next_existing",
}

func (p MisfirePolicy) String() string {
	if s, ok := misfirePolicyNames[p]; ok {
		return s
	}
	return "unknown"
}

// ScheduleKind discriminates the polymorphic Schedule variant carried by a Trigger.
type ScheduleKind int

const (
	ScheduleSimple ScheduleKind = iota
	ScheduleCron
	ScheduleCalendarInterval
	ScheduleDailyTimeInterval
)

// IntervalUnit is shared by calendar-interval and daily-time-interval schedules.
type IntervalUnit int

const (
	UnitSecond IntervalUnit = iota
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

// SimpleSchedule fires at startTime + k*RepeatInterval for k=0..RepeatCount.
// RepeatCount == -1 means indefinite repeat.
type SimpleSchedule struct {
	RepeatInterval time.Duration
	RepeatCount    int // -1 = indefinite
}

const RepeatIndefinitely = -1

// CronSchedule carries a 5- or 6-field expression ([sec] min hour dom mon dow)
// evaluated in Location; there is no year field and no L/W/# tokens. Parsing and evaluation live in package trigger.
type CronSchedule struct {
	Expression string
	Location   *time.Location
}

func (c CronSchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(cronScheduleWire{Expression: c.Expression, Location: locationName(c.Location)})
}

func (c *CronSchedule) UnmarshalJSON(b []byte) error {
	var w cronScheduleWire
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

type cronScheduleWire struct {
	Expression string
	Location   string
}

// CalendarIntervalSchedule adds N*Unit using calendar arithmetic (DST- and
// day-of-month-aware) rather than a fixed duration.
type CalendarIntervalSchedule struct {
	Interval int
	Unit     IntervalUnit
	Location *time.Location
}

func (c CalendarIntervalSchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(calendarIntervalWire{Interval: c.Interval, Unit: c.Unit, Location: locationName(c.Location)})
}

func (c *CalendarIntervalSchedule) UnmarshalJSON(b []byte) error {
	var w calendarIntervalWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	loc, err := loadLocation(w.Location)
	if err != nil {
		return err
	}
	c.Interval, c.Unit, c.Location = w.Interval, w.Unit, loc
	return nil
}

type calendarIntervalWire struct {
	Interval int
	Unit     IntervalUnit
	Location string
}

// DailyTimeIntervalSchedule fires within [StartTimeOfDay, EndTimeOfDay] on the
// given weekdays, stepping by Interval*Unit (Unit restricted to
// second/minute/hour; Interval*Unit must stay <= 24h).
type DailyTimeIntervalSchedule struct {
	StartTimeOfDay TimeOfDay
	EndTimeOfDay   TimeOfDay
	DaysOfWeek     [7]bool // index 0 = Sunday
	Interval       int
	Unit           IntervalUnit
	RepeatCount    int // RepeatIndefinitely for unbounded
	Location       *time.Location
}

func (d DailyTimeIntervalSchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(dailyTimeIntervalWire{
		StartTimeOfDay: d.StartTimeOfDay,
		EndTimeOfDay:   d.EndTimeOfDay,
		DaysOfWeek:     d.DaysOfWeek,
		Interval:       d.Interval,
		Unit:           d.Unit,
		RepeatCount:    d.RepeatCount,
		Location:       locationName(d.Location),
	})
}

func (d *DailyTimeIntervalSchedule) UnmarshalJSON(b []byte) error {
	var w dailyTimeIntervalWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	loc, err := loadLocation(w.Location)
	if err != nil {
		return err
	}
	d.StartTimeOfDay, d.EndTimeOfDay, d.DaysOfWeek = w.StartTimeOfDay, w.EndTimeOfDay, w.DaysOfWeek
	d.Interval, d.Unit, d.RepeatCount, d.Location = w.Interval, w.Unit, w.RepeatCount, loc
	return nil
}

type dailyTimeIntervalWire struct {
	StartTimeOfDay TimeOfDay
	EndTimeOfDay   TimeOfDay
	DaysOfWeek     [7]bool
	Interval       int
	Unit           IntervalUnit
	RepeatCount    int
	Location       string
}

// locationName returns loc's IANA name, defaulting to UTC for nil.
func locationName(loc *time.Location) string {
	if loc == nil {
		return "UTC"
	}
	return loc.String()
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// TimeOfDay is a wall-clock time of day with no date component.
type TimeOfDay struct {
	Hour, Minute, Second int
}

func (t TimeOfDay) onDate(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return (t.Hour*3600 + t.Minute*60 + t.Second) < (other.Hour*3600 + other.Minute*60 + other.Second)
}

// OnDate anchors this time-of-day onto the date portion of d, in loc.
func (t TimeOfDay) OnDate(d time.Time, loc *time.Location) time.Time {
	return t.onDate(d, loc)
}

// Schedule is the tagged union of the four trigger-time-computation variants.
// Exactly one of the pointer fields is non-nil, selected by Kind.
type Schedule struct {
	Kind              ScheduleKind
	Simple            *SimpleSchedule
	Cron              *CronSchedule
	CalendarInterval  *CalendarIntervalSchedule
	DailyTimeInterval *DailyTimeIntervalSchedule
}

// TriggerCommon holds the fields shared by every schedule variant.
type TriggerCommon struct {
	Key          Key
	JobKey       Key
	Description  string
	StartTime    time.Time
	EndTime      time.Time // zero value = no end
	Priority     int       // default 5
	Misfire      MisfirePolicy
	CalendarName string
	JobDataMap   JobDataMap

	NextFireTime     time.Time // zero = none
	PreviousFireTime time.Time // zero = none
	FireInstanceID   string
	State            State
}

const DefaultPriority = 5

// Trigger combines the common fields with its polymorphic schedule.
type Trigger struct {
	TriggerCommon
	Schedule Schedule
}

// Clone returns a deep-enough copy for safe caller mutation.
func (t *Trigger) Clone() *Trigger {
	if t == nil {
		return nil
	}
	cp := *t
	cp.JobDataMap = t.JobDataMap.Clone()
	return &cp
}
