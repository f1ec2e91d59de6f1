package calendar

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronCalendar excludes every minute matched by a cron expression, evaluated
// in loc.
type cronCalendar struct {
	base     Filter
	schedule cron.Schedule
	loc      *time.Location
}

func (c *cronCalendar) excludes(t time.Time) bool {
	local := t.In(c.loc)
	minuteStart := local.Truncate(time.Minute)
	return c.schedule.Next(minuteStart.Add(-time.Nanosecond)).Equal(minuteStart)
}

func (c *cronCalendar) IsTimeIncluded(t time.Time) bool {
	return !c.excludes(t) && includedByBase(c.base, t)
}

func (c *cronCalendar) GetNextIncludedTime(t time.Time) time.Time {
	next := t.Add(time.Minute).Truncate(time.Minute)
	for {
		if !c.excludes(next) {
			if includedByBase(c.base, next) {
				return next
			}
			if baseNext := nextFromBase(c.base, next); baseNext.After(next) {
				next = baseNext.Truncate(time.Minute)
				if !next.After(t) {
					next = next.Add(time.Minute)
				}
				continue
			}
		}
		next = next.Add(time.Minute)
	}
}
