package listener

import (
	"context"
	"log/slog"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

// Logging{Trigger,Job,Scheduler}Listener are Go ports of Quartz's
// LoggingTriggerHistoryPlugin / LoggingJobHistoryPlugin: listeners that do
// nothing but emit a structured log line per event, registered by default
// so a fresh instance has visible fire/complete history without any extra
// wiring.

type LoggingTriggerListener struct {
	logger *slog.Logger
}

func NewLoggingTriggerListener(logger *slog.Logger) *LoggingTriggerListener {
	return &LoggingTriggerListener{logger: logger.With("component", "trigger_history")}
}

func (l *LoggingTriggerListener) Name() string { return "logging-trigger-listener" }

func (l *LoggingTriggerListener) TriggerFired(ctx context.Context, tr *domain.Trigger, scheduledTime time.Time) {
	l.logger.InfoContext(ctx, "trigger fired", "trigger", tr.Key.String(), "job", tr.JobKey.String(), "scheduled_time", scheduledTime)
}

func (l *LoggingTriggerListener) VetoJobExecution(context.Context, *domain.Trigger) TriggerVeto {
	return VetoNone
}

func (l *LoggingTriggerListener) TriggerMisfired(ctx context.Context, tr *domain.Trigger) {
	l.logger.WarnContext(ctx, "trigger misfired", "trigger", tr.Key.String(), "next_fire_time", tr.NextFireTime)
}

func (l *LoggingTriggerListener) TriggerComplete(ctx context.Context, tr *domain.Trigger, instr domain.CompletionInstruction) {
	l.logger.InfoContext(ctx, "trigger complete", "trigger", tr.Key.String(), "instruction", instr.String())
}

type LoggingJobListener struct {
	logger *slog.Logger
}

func NewLoggingJobListener(logger *slog.Logger) *LoggingJobListener {
	return &LoggingJobListener{logger: logger.With("component", "job_history")}
}

func (l *LoggingJobListener) Name() string { return "logging-job-listener" }

func (l *LoggingJobListener) JobToBeExecuted(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger) {
	l.logger.InfoContext(ctx, "job to be executed", "job", job.Key.String(), "trigger", tr.Key.String())
}

func (l *LoggingJobListener) JobExecutionVetoed(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger) {
	l.logger.InfoContext(ctx, "job execution vetoed", "job", job.Key.String(), "trigger", tr.Key.String())
}

func (l *LoggingJobListener) JobWasExecuted(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger, jobErr error) {
	if jobErr != nil {
		l.logger.ErrorContext(ctx, "job was executed", "job", job.Key.String(), "trigger", tr.Key.String(), "error", jobErr)
		return
	}
	l.logger.InfoContext(ctx, "job was executed", "job", job.Key.String(), "trigger", tr.Key.String())
}

type LoggingSchedulerListener struct {
	logger *slog.Logger
}

func NewLoggingSchedulerListener(logger *slog.Logger) *LoggingSchedulerListener {
	return &LoggingSchedulerListener{logger: logger.With("component", "scheduler_history")}
}

func (l *LoggingSchedulerListener) Name() string { return "logging-scheduler-listener" }
func (l *LoggingSchedulerListener) SchedulerStarted(ctx context.Context) {
	l.logger.InfoContext(ctx, "scheduler started")
}
func (l *LoggingSchedulerListener) SchedulerPaused(ctx context.Context) {
	l.logger.InfoContext(ctx, "scheduler paused")
}
func (l *LoggingSchedulerListener) SchedulerResumed(ctx context.Context) {
	l.logger.InfoContext(ctx, "scheduler resumed")
}
func (l *LoggingSchedulerListener) SchedulerShuttingDown(ctx context.Context) {
	l.logger.InfoContext(ctx, "scheduler shutting down")
}
func (l *LoggingSchedulerListener) SchedulerShutdown(ctx context.Context) {
	l.logger.InfoContext(ctx, "scheduler shutdown")
}
func (l *LoggingSchedulerListener) SchedulerError(ctx context.Context, msg string, err error) {
	l.logger.ErrorContext(ctx, "scheduler error", "message", msg, "error", err)
}
func (l *LoggingSchedulerListener) JobScheduled(ctx context.Context, tr *domain.Trigger) {
	l.logger.InfoContext(ctx, "job scheduled", "trigger", tr.Key.String())
}
func (l *LoggingSchedulerListener) JobUnscheduled(ctx context.Context, key domain.Key) {
	l.logger.InfoContext(ctx, "job unscheduled", "trigger", key.String())
}
func (l *LoggingSchedulerListener) JobDeleted(ctx context.Context, key domain.Key) {
	l.logger.InfoContext(ctx, "job deleted", "job", key.String())
}
func (l *LoggingSchedulerListener) JobPaused(ctx context.Context, key domain.Key) {
	l.logger.InfoContext(ctx, "job paused", "job", key.String())
}
func (l *LoggingSchedulerListener) JobResumed(ctx context.Context, key domain.Key) {
	l.logger.InfoContext(ctx, "job resumed", "job", key.String())
}
