// Package timeutil provides the calendar-arithmetic primitives the schedule
// evaluators build on: rounding helpers and DST-aware translation.
package timeutil

import "time"

// EvenSecondBefore truncates t down to the start of its second.
func EvenSecondBefore(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

// EvenSecondAfter rounds t up to the start of the next second, or returns t
// unchanged if it already falls exactly on a second boundary.
func EvenSecondAfter(t time.Time) time.Time {
	floor := EvenSecondBefore(t)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(time.Second)
}

// EvenMinuteBefore truncates t down to the start of its minute.
func EvenMinuteBefore(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// EvenMinuteAfter rounds t up to the start of the next minute, or returns t
// unchanged if it already falls exactly on a minute boundary.
func EvenMinuteAfter(t time.Time) time.Time {
	floor := EvenMinuteBefore(t)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(time.Minute)
}

// EvenHourBefore truncates t down to the start of its hour.
func EvenHourBefore(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// EvenHourAfter rounds t up to the start of the next hour, or returns t
// unchanged if it already falls exactly on an hour boundary.
func EvenHourAfter(t time.Time) time.Time {
	floor := EvenHourBefore(t)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(time.Hour)
}

// NextGivenMinuteDate advances t to the next minute boundary that is a
// multiple of base (0..59). When base==0 it advances to the next hour;
// otherwise to the next multiple of base, rolling into the next hour when
// the multiple would reach 60. Seconds and sub-second components are
// zeroed.
func NextGivenMinuteDate(t time.Time, base int) time.Time {
	if base <= 0 || base > 59 {
		return EvenHourBefore(t).Add(time.Hour)
	}

	minute := (t.Minute()/base + 1) * base
	hour := t.Hour()
	day := t.Day()
	month := t.Month()
	year := t.Year()

	if minute >= 60 {
		minute = 0
		hour++
		if hour >= 24 {
			hour = 0
			// Advance the date by one day via time.Date's normalization.
			d := time.Date(year, month, day+1, 0, 0, 0, 0, t.Location())
			year, month, day = d.Year(), d.Month(), d.Day()
		}
	}

	return time.Date(year, month, day, hour, minute, 0, 0, t.Location())
}

// NextGivenSecondDate advances t to the next second boundary that is a
// multiple of base (0..59), analogous to NextGivenMinuteDate one level down.
func NextGivenSecondDate(t time.Time, base int) time.Time {
	if base <= 0 || base > 59 {
		return EvenMinuteBefore(t).Add(time.Minute)
	}

	second := (t.Second()/base + 1) * base
	minute := t.Minute()
	hour := t.Hour()
	day := t.Day()
	month := t.Month()
	year := t.Year()

	if second >= 60 {
		second = 0
		minute++
		if minute >= 60 {
			minute = 0
			hour++
			if hour >= 24 {
				hour = 0
				d := time.Date(year, month, day+1, 0, 0, 0, 0, t.Location())
				year, month, day = d.Year(), d.Month(), d.Day()
			}
		}
	}

	return time.Date(year, month, day, hour, minute, second, 0, t.Location())
}

// TranslateTime reinterprets t's wall-clock fields in dst instead of src,
// shifting by the zone-offset difference observed at t.
func TranslateTime(t time.Time, src, dst *time.Location) time.Time {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), src)
	_, srcOffset := wall.Zone()
	inDst := wall.In(dst)
	_, dstOffset := inDst.Zone()
	return wall.Add(time.Duration(srcOffset-dstOffset) * time.Second).In(dst)
}
