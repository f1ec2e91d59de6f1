package calendar

import (
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

// daily excludes a time-of-day window, applied every day. A window whose
// End precedes its Start is treated as spanning midnight. When InvertWindow
// is set, only instants INSIDE the window are included.
type daily struct {
	base Filter
	data domain.DailyCalendarData
}

func (d *daily) window(at time.Time) (start, end time.Time) {
	loc := at.Location()
	start = d.data.Start.OnDate(at, loc)
	end = d.data.End.OnDate(at, loc)
	if end.Before(start) {
		if at.After(end) {
			end = end.Add(24 * time.Hour)
		} else {
			start = start.Add(-24 * time.Hour)
		}
	}
	return start, end
}

func (d *daily) excludes(t time.Time) bool {
	start, end := d.window(t)
	inWindow := !t.Before(start) && !t.After(end)
	if d.data.InvertWindow {
		return !inWindow
	}
	return inWindow
}

func (d *daily) IsTimeIncluded(t time.Time) bool {
	return !d.excludes(t) && includedByBase(d.base, t)
}

func (d *daily) GetNextIncludedTime(t time.Time) time.Time {
	next := t.Add(time.Second)
	for {
		if !d.excludes(next) {
			if includedByBase(d.base, next) {
				return next
			}
			if baseNext := nextFromBase(d.base, next); baseNext.After(next) {
				next = baseNext
				continue
			}
		}

		start, end := d.window(next)
		if d.data.InvertWindow {
			if next.Before(start) {
				next = start
			} else {
				next, _ = d.window(next.Add(24 * time.Hour))
			}
		} else {
			if next.After(end) {
				start, _ = d.window(next.Add(24 * time.Hour))
				next = start
			} else {
				next = end.Add(time.Second)
			}
		}
	}
}
