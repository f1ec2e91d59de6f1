package calendar

import "time"

// annual excludes a fixed set of (month, day) pairs, repeating every year.
type annual struct {
	base Filter
	days [][2]int
}

func (a *annual) excludes(t time.Time) bool {
	m, d := int(t.Month()), t.Day()
	for _, md := range a.days {
		if md[0] == m && md[1] == d {
			return true
		}
	}
	return false
}

func (a *annual) IsTimeIncluded(t time.Time) bool {
	return !a.excludes(t) && includedByBase(a.base, t)
}

func (a *annual) GetNextIncludedTime(t time.Time) time.Time {
	next := startOfNextDay(t)
	for {
		if !a.excludes(next) {
			if includedByBase(a.base, next) {
				return next
			}
			if baseNext := nextFromBase(a.base, next); baseNext.After(next) {
				next = baseNext
				continue
			}
		}
		next = startOfNextDay(next)
	}
}

func startOfNextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
