package trigger

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quartzgo/quartz/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateCronExpression parses expr with the same field set
// cronFireTimeAfter uses. robfig/cron's standard parser does not support
// Quartz's L/W/#/year tokens, so an expression relying on them fails here,
// at schedule-creation time (see ValidateSchedule), rather than surfacing
// later as a silently exhausted schedule.
func ValidateCronExpression(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("trigger: invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// cronFireTimeAfter evaluates the trigger's cron expression with
// robfig/cron's standard field parser. Callers are expected to have
// already run ValidateSchedule at store time, so a parse failure here
// indicates a bug rather than user input.
func cronFireTimeAfter(tr *domain.Trigger, after time.Time) (time.Time, bool) {
	c := tr.Schedule.Cron
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	sched, err := cronParser.Parse(c.Expression)
	if err != nil {
		return time.Time{}, false
	}

	next := sched.Next(after.In(loc))
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
