package trigger

import (
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

// simpleFireTimeAfter implements fixed-interval repetition: StartTime,
// StartTime+interval, StartTime+2*interval, ... up to RepeatCount
// repetitions (RepeatIndefinitely for unbounded).
func simpleFireTimeAfter(tr *domain.Trigger, after time.Time) (time.Time, bool) {
	s := tr.Schedule.Simple

	if s.RepeatCount == 0 {
		if after.Before(tr.StartTime) {
			return tr.StartTime, true
		}
		return time.Time{}, false
	}

	if s.RepeatInterval <= 0 {
		if after.Before(tr.StartTime) {
			return tr.StartTime, true
		}
		return time.Time{}, false
	}

	if after.Before(tr.StartTime) {
		return tr.StartTime, true
	}

	elapsed := after.Sub(tr.StartTime)
	n := int64(elapsed/s.RepeatInterval) + 1

	if s.RepeatCount != domain.RepeatIndefinitely && n > int64(s.RepeatCount) {
		return time.Time{}, false
	}

	candidate := tr.StartTime.Add(time.Duration(n) * s.RepeatInterval)
	if !candidate.After(after) {
		n++
		if s.RepeatCount != domain.RepeatIndefinitely && n > int64(s.RepeatCount) {
			return time.Time{}, false
		}
		candidate = tr.StartTime.Add(time.Duration(n) * s.RepeatInterval)
	}
	return candidate, true
}
