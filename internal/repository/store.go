// Package repository declares the store contract the scheduler core runs
// against. Two implementations satisfy it: store/memory (single process,
// no coordination) and store/postgres (clustered, row-lock coordinated).
package repository

import (
	"context"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

// TriggerFiredResult is what Store.TriggersFired returns per acquired
// trigger: either it fired successfully, or the store discovered it should
// not have (already paused, deleted, or blocked by a concurrency-disallowed
// job) and the caller must not execute the job.
type TriggerFiredResult struct {
	Record  *domain.FiredTriggerRecord
	Trigger *domain.Trigger
	Job     *domain.JobDetail
	OK      bool
}

// Store is the contract the scheduler core runs against: job/trigger/
// calendar persistence, pause-group bookkeeping, and the acquire/fire/
// complete pipeline that coordinates concurrent schedulers sharing one
// store.
type Store interface {
	// Job and trigger CRUD.

	StoreJob(ctx context.Context, job *domain.JobDetail, replaceExisting bool) error
	StoreTrigger(ctx context.Context, tr *domain.Trigger, replaceExisting bool) error
	StoreJobAndTrigger(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger) error

	RemoveJob(ctx context.Context, key domain.Key) (bool, error)
	RemoveTrigger(ctx context.Context, key domain.Key) (bool, error)
	ReplaceTrigger(ctx context.Context, key domain.Key, newTrigger *domain.Trigger) (bool, error)

	RetrieveJob(ctx context.Context, key domain.Key) (*domain.JobDetail, error)
	RetrieveTrigger(ctx context.Context, key domain.Key) (*domain.Trigger, error)
	CheckExistsJob(ctx context.Context, key domain.Key) (bool, error)
	CheckExistsTrigger(ctx context.Context, key domain.Key) (bool, error)

	GetTriggersForJob(ctx context.Context, jobKey domain.Key) ([]*domain.Trigger, error)
	GetJobKeys(ctx context.Context, groupMatcher Matcher) ([]domain.Key, error)
	GetTriggerKeys(ctx context.Context, groupMatcher Matcher) ([]domain.Key, error)
	GetJobGroupNames(ctx context.Context) ([]string, error)
	GetTriggerGroupNames(ctx context.Context) ([]string, error)

	// Calendars.

	StoreCalendar(ctx context.Context, cal *domain.Calendar, replaceExisting bool) error
	RemoveCalendar(ctx context.Context, name string) (bool, error)
	RetrieveCalendar(ctx context.Context, name string) (*domain.Calendar, error)
	GetCalendarNames(ctx context.Context) ([]string, error)

	// Pause / resume.

	PauseTrigger(ctx context.Context, key domain.Key) error
	PauseTriggers(ctx context.Context, groupMatcher Matcher) ([]string, error)
	ResumeTrigger(ctx context.Context, key domain.Key) error
	ResumeTriggers(ctx context.Context, groupMatcher Matcher) ([]string, error)
	PauseJob(ctx context.Context, key domain.Key) error
	PauseJobs(ctx context.Context, groupMatcher Matcher) ([]string, error)
	ResumeJob(ctx context.Context, key domain.Key) error
	ResumeJobs(ctx context.Context, groupMatcher Matcher) ([]string, error)
	PauseAll(ctx context.Context) error
	ResumeAll(ctx context.Context) error
	GetPausedTriggerGroups(ctx context.Context) ([]string, error)

	// Acquire / fire / complete pipeline.

	// AcquireNextTriggers returns up to maxCount WAITING triggers whose
	// NextFireTime is <= noLaterThan + timeWindow, transitioning them to ACQUIRED. When
	// the underlying store is clustered this is where cross-instance
	// exclusivity is enforced (a row lock, or equivalent).
	AcquireNextTriggers(ctx context.Context, noLaterThan time.Time, maxCount int, timeWindow time.Duration) ([]*domain.Trigger, error)

	// ReleaseAcquiredTrigger returns an acquired trigger to WAITING,
	// used when a scheduler that acquired a batch fails before firing it.
	ReleaseAcquiredTrigger(ctx context.Context, tr *domain.Trigger) error

	// TriggersFired marks each acquired trigger as EXECUTING and writes its
	// FiredTriggerRecord under instanceID, returning one TriggerFiredResult
	// per input trigger (order preserved). A trigger with OK==false must
	// not run.
	TriggersFired(ctx context.Context, instanceID string, triggers []*domain.Trigger) ([]TriggerFiredResult, error)

	// TriggeredJobComplete finalizes a fire according to instruction,
	// moving the trigger to its next state and computing its next fire
	// time when it remains WAITING.
	TriggeredJobComplete(ctx context.Context, tr *domain.Trigger, job *domain.JobDetail, instruction domain.CompletionInstruction) error

	// Cluster coordination.

	SchedulerStarted(ctx context.Context, instanceID string, checkinInterval time.Duration) error
	SchedulerPaused(ctx context.Context, instanceID string) error
	SchedulerResumed(ctx context.Context, instanceID string) error
	SchedulerShutdown(ctx context.Context, instanceID string) error
	CheckIn(ctx context.Context, instanceID string) error

	// FindFailedInstances returns the instance IDs whose last checkin is
	// older than olderThan, used to trigger recovery of their in-flight
	// FiredTriggerRecords.
	FindFailedInstances(ctx context.Context, olderThan time.Time) ([]string, error)

	// RecoverFailedInstance reassigns or deletes the FIRED_TRIGGERS rows of
	// a dead instance: for a row whose job RequestsRecovery, its own trigger
	// is set back to WAITING with NextFireTime at the recorded scheduled
	// time, so that instant fires again; no separate one-shot trigger is
	// created. The other rows' triggers still ACQUIRED or EXECUTING are
	// released back to WAITING (a COMPLETE trigger stays COMPLETE). The
	// rows themselves are then deleted.
	RecoverFailedInstance(ctx context.Context, instanceID string) error
}

// Matcher is a store-level key-group predicate, independent of the
// listener package's Matcher so the repository contract has no dependency
// on it.
type Matcher interface {
	Matches(key domain.Key) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(key domain.Key) bool

func (f MatcherFunc) Matches(key domain.Key) bool { return f(key) }

// GroupEquals matches keys in the given group.
func GroupEquals(group string) Matcher {
	return MatcherFunc(func(key domain.Key) bool { return key.Group == group })
}
