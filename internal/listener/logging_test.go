package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

var (
	_ TriggerListener   = (*LoggingTriggerListener)(nil)
	_ JobListener       = (*LoggingJobListener)(nil)
	_ SchedulerListener = (*LoggingSchedulerListener)(nil)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoggingTriggerListener(t *testing.T) {
	l := NewLoggingTriggerListener(discardLogger())
	if l.Name() == "" {
		t.Fatal("expected non-empty name")
	}
	tr := &domain.Trigger{TriggerCommon: domain.TriggerCommon{
		Key:    domain.Key{Name: "t1", Group: "g"},
		JobKey: domain.Key{Name: "j1", Group: "g"},
	}}

	l.TriggerFired(context.Background(), tr, time.Now())
	if v := l.VetoJobExecution(context.Background(), tr); v != VetoNone {
		t.Fatalf("expected VetoNone, got %v", v)
	}
	l.TriggerMisfired(context.Background(), tr)
	l.TriggerComplete(context.Background(), tr, domain.SetTriggerComplete)
}

func TestLoggingJobListener(t *testing.T) {
	l := NewLoggingJobListener(discardLogger())
	job := &domain.JobDetail{Key: domain.Key{Name: "j1", Group: "g"}}
	tr := &domain.Trigger{TriggerCommon: domain.TriggerCommon{Key: domain.Key{Name: "t1", Group: "g"}}}

	l.JobToBeExecuted(context.Background(), job, tr)
	l.JobExecutionVetoed(context.Background(), job, tr)
	l.JobWasExecuted(context.Background(), job, tr, nil)
	l.JobWasExecuted(context.Background(), job, tr, errors.New("boom"))
}

func TestLoggingSchedulerListener(t *testing.T) {
	l := NewLoggingSchedulerListener(discardLogger())
	ctx := context.Background()
	key := domain.Key{Name: "j1", Group: "g"}
	tr := &domain.Trigger{TriggerCommon: domain.TriggerCommon{Key: domain.Key{Name: "t1", Group: "g"}}}

	l.SchedulerStarted(ctx)
	l.SchedulerPaused(ctx)
	l.SchedulerResumed(ctx)
	l.SchedulerShuttingDown(ctx)
	l.SchedulerShutdown(ctx)
	l.SchedulerError(ctx, "oops", errors.New("boom"))
	l.JobScheduled(ctx, tr)
	l.JobUnscheduled(ctx, key)
	l.JobDeleted(ctx, key)
	l.JobPaused(ctx, key)
	l.JobResumed(ctx, key)
}
