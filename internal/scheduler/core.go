package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/listener"
	"github.com/quartzgo/quartz/internal/metrics"
	"github.com/quartzgo/quartz/internal/repository"
	"github.com/quartzgo/quartz/internal/requestid"
	"github.com/quartzgo/quartz/internal/trigger"
)

// State is the scheduler's own lifecycle state, distinct from a trigger's
// domain.State.
type State string

const (
	StateCreated      State = "CREATED"
	StateStandby      State = "STANDBY"
	StateStarted      State = "STARTED"
	StateShuttingDown State = "SHUTTING_DOWN"
	StateShutdown     State = "SHUTDOWN"
)

// Config carries the resolved scheduler/threadPool/jobStore settings
// config.Config loads from the environment.
type Config struct {
	InstanceID       string
	InstanceName     string
	ThreadCount      int
	MisfireThreshold time.Duration
	IdleWaitTime     time.Duration
	BatchTimeWindow  time.Duration
	AcquireBatchSize int
	ClusterCheckin   time.Duration
	DbRetryInterval  time.Duration
}

// Scheduler runs the acquire -> fire -> complete pipeline against a
// repository.Store, dispatching fires onto a bounded worker pool.
type Scheduler struct {
	cfg     Config
	store   repository.Store
	factory JobFactory
	logger  *slog.Logger
	pool    *pool

	TriggerListeners   *listener.TriggerListenerRegistry
	JobListeners       *listener.JobListenerRegistry
	SchedulerListeners *listener.SchedulerListenerRegistry

	mu        sync.Mutex
	state     State
	startedAt time.Time

	signal chan struct{}

	runningMu sync.Mutex
	running   map[domain.Key]InterruptableJob

	jobsExecuted atomic.Int64
	jobsFailed   atomic.Int64
}

func New(cfg Config, store repository.Store, factory JobFactory, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		store:   store,
		factory: factory,
		logger:  logger.With("component", "scheduler", "instance_id", cfg.InstanceID),
		pool:    newPool(cfg.ThreadCount),

		TriggerListeners:   listener.NewTriggerListenerRegistry(),
		JobListeners:       listener.NewJobListenerRegistry(),
		SchedulerListeners: listener.NewSchedulerListenerRegistry(),

		state:   StateCreated,
		signal:  make(chan struct{}, 1),
		running: make(map[domain.Key]InterruptableJob),
	}
}

// SignalSchedulingChange wakes a loop that's idling early, for callers that
// just stored a trigger firing sooner than what the loop is waiting on.
func (s *Scheduler) SignalSchedulingChange() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStarted {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStarted
	s.startedAt = time.Now()
	s.mu.Unlock()

	if err := s.store.SchedulerStarted(ctx, s.cfg.InstanceID, s.cfg.ClusterCheckin); err != nil {
		return fmt.Errorf("scheduler: start: %w", err)
	}
	s.SchedulerListeners.FireSchedulerStarted(ctx)

	go s.loop(ctx)
	return nil
}

// Standby pauses acquisition without stopping the process; fires already
// dispatched continue to completion.
func (s *Scheduler) Standby(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateStandby
	s.mu.Unlock()
	if err := s.store.SchedulerPaused(ctx, s.cfg.InstanceID); err != nil {
		return fmt.Errorf("scheduler: standby: %w", err)
	}
	s.SchedulerListeners.FireSchedulerPaused(ctx)
	return nil
}

func (s *Scheduler) Resume(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateStarted
	s.mu.Unlock()
	if err := s.store.SchedulerResumed(ctx, s.cfg.InstanceID); err != nil {
		return fmt.Errorf("scheduler: resume: %w", err)
	}
	s.SchedulerListeners.FireSchedulerResumed(ctx)
	s.SignalSchedulingChange()
	return nil
}

// Shutdown stops acquiring new triggers; if waitForJobsToComplete, it
// blocks until every in-flight fire returns.
func (s *Scheduler) Shutdown(ctx context.Context, waitForJobsToComplete bool) error {
	s.mu.Lock()
	s.state = StateShuttingDown
	s.mu.Unlock()
	s.SchedulerListeners.FireSchedulerShuttingDown(ctx)

	if waitForJobsToComplete {
		s.pool.wait()
	}

	s.mu.Lock()
	s.state = StateShutdown
	s.mu.Unlock()

	if err := s.store.SchedulerShutdown(ctx, s.cfg.InstanceID); err != nil {
		return fmt.Errorf("scheduler: shutdown: %w", err)
	}
	s.SchedulerListeners.FireSchedulerShutdown(ctx)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	s.logger.Info("scheduling loop started", "thread_count", s.cfg.ThreadCount)
	for {
		if ctx.Err() != nil {
			return
		}
		if s.State() != StateStarted {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.IdleWaitTime):
			case <-s.signal:
			}
			continue
		}

		if !s.pool.available() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		batch, err := s.acquire(ctx)
		if err != nil {
			s.logger.Error("acquire next triggers", "error", err)
			s.SchedulerListeners.FireSchedulerError(ctx, "acquire next triggers", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.DbRetryInterval):
			}
			continue
		}

		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.IdleWaitTime):
			case <-s.signal:
			}
			continue
		}

		s.fireBatch(ctx, batch)
	}
}

// acquire pulls the next batch of due triggers and resolves any that have
// misfired before handing the rest on to fireBatch. Misfire resolution here
// runs without a calendar filter: a calendar-excluded reschedule target is
// still caught on the trigger's next regular advance inside the store, so
// this only widens (never narrows) the window in which a trigger could
// still be considered misfired.
func (s *Scheduler) acquire(ctx context.Context) ([]*domain.Trigger, error) {
	noLaterThan := time.Now().Add(s.cfg.IdleWaitTime)

	start := time.Now()
	batch, err := s.store.AcquireNextTriggers(ctx, noLaterThan, s.cfg.AcquireBatchSize, s.cfg.BatchTimeWindow)
	metrics.AcquireLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.TriggersAcquiredTotal.Add(float64(len(batch)))

	due := make([]*domain.Trigger, 0, len(batch))
	now := time.Now()
	for _, tr := range batch {
		if trigger.ApplyMisfire(tr, s.cfg.MisfireThreshold, now, nil) {
			metrics.MisfiresTotal.WithLabelValues(tr.Misfire.String()).Inc()
			s.TriggerListeners.FireTriggerMisfired(ctx, tr)
			if _, err := s.store.ReplaceTrigger(ctx, tr.Key, tr); err != nil {
				s.logger.Error("persist misfire reschedule", "trigger", tr.Key, "error", err)
			}
			if tr.State == domain.StateComplete {
				continue
			}
		}
		due = append(due, tr)
	}
	return due, nil
}

func (s *Scheduler) fireBatch(ctx context.Context, batch []*domain.Trigger) {
	results, err := s.store.TriggersFired(ctx, s.cfg.InstanceID, batch)
	if err != nil {
		s.logger.Error("triggers fired", "error", err)
		s.SchedulerListeners.FireSchedulerError(ctx, "triggers fired", err)
		return
	}

	for _, res := range results {
		if !res.OK {
			continue
		}
		res := res
		s.pool.run(func() { s.fireOne(ctx, res) })
	}
}

func (s *Scheduler) fireOne(ctx context.Context, res repository.TriggerFiredResult) {
	tr, job := res.Trigger, res.Job
	ctx = requestid.WithRequestID(ctx, tr.FireInstanceID)

	s.TriggerListeners.FireTriggerFired(ctx, tr, res.Record.ScheduledTime)
	if s.TriggerListeners.FireVetoJobExecution(ctx, tr) == listener.VetoFire {
		s.JobListeners.FireJobExecutionVetoed(ctx, job, tr)
		s.finish(ctx, tr, job, domain.NoOp)
		return
	}

	s.JobListeners.FireJobToBeExecuted(ctx, job, tr)

	jobInstance, err := s.factory.New(job.JobClass)
	if err != nil {
		s.logger.Error("resolve job class", "job_class", job.JobClass, "error", err)
		s.JobListeners.FireJobWasExecuted(ctx, job, tr, err)
		s.finish(ctx, tr, job, domain.SetTriggerError)
		return
	}

	jec := &JobExecutionContext{
		FireInstanceID:    tr.FireInstanceID,
		ScheduledFireTime: res.Record.ScheduledTime,
		FireTime:          res.Record.FiredTime,
		PreviousFireTime:  tr.PreviousFireTime,
		NextFireTime:      tr.NextFireTime,
		JobDetail:         job,
		Trigger:           tr,
		JobDataMap:        mergedJobDataMap(job, tr),
	}

	if ij, ok := jobInstance.(InterruptableJob); ok {
		s.trackRunning(job.Key, ij)
		defer s.untrackRunning(job.Key)
	}

	metrics.JobsInFlight.Inc()
	start := time.Now()
	jobErr := s.runJob(ctx, jobInstance, jec)
	duration := time.Since(start)
	metrics.JobsInFlight.Dec()

	outcome := "success"
	if jobErr != nil {
		outcome = "failure"
	}
	metrics.JobExecutionDuration.WithLabelValues(outcome).Observe(duration.Seconds())

	s.JobListeners.FireJobWasExecuted(ctx, job, tr, jobErr)

	instruction := domain.NoOp
	if jobErr != nil {
		s.jobsFailed.Add(1)
		s.logger.ErrorContext(ctx, "job execution failed", "job", job.Key, "trigger", tr.Key, "duration", duration, "error", jobErr)
		instruction = domain.SetTriggerError
	} else {
		s.jobsExecuted.Add(1)
		s.logger.InfoContext(ctx, "job executed", "job", job.Key, "trigger", tr.Key, "duration", duration)
	}

	s.finish(ctx, tr, job, instruction)
}

// runJob isolates a job's Execute call so a panic can't take down the
// scheduling loop; a panic is reported the same way a returned error would
// be.
func (s *Scheduler) runJob(ctx context.Context, j Job, jec *JobExecutionContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return j.Execute(ctx, jec)
}

func (s *Scheduler) finish(ctx context.Context, tr *domain.Trigger, job *domain.JobDetail, instruction domain.CompletionInstruction) {
	metrics.JobsCompletedTotal.WithLabelValues(instruction.String()).Inc()
	if err := s.store.TriggeredJobComplete(ctx, tr, job, instruction); err != nil {
		s.logger.Error("triggered job complete", "trigger", tr.Key, "error", err)
		s.SchedulerListeners.FireSchedulerError(ctx, "triggered job complete", err)
	}
	s.TriggerListeners.FireTriggerComplete(ctx, tr, instruction)
}

func (s *Scheduler) trackRunning(key domain.Key, ij InterruptableJob) {
	s.runningMu.Lock()
	s.running[key] = ij
	s.runningMu.Unlock()
}

func (s *Scheduler) untrackRunning(key domain.Key) {
	s.runningMu.Lock()
	delete(s.running, key)
	s.runningMu.Unlock()
}

// ErrNotInterruptable is returned by Interrupt when jobKey isn't currently
// running, or is running a Job that doesn't implement InterruptableJob.
var ErrNotInterruptable = errors.New("scheduler: job does not support interruption")

// Interrupt asks the in-flight execution of jobKey's job to stop.
func (s *Scheduler) Interrupt(jobKey domain.Key) error {
	s.runningMu.Lock()
	ij, ok := s.running[jobKey]
	s.runningMu.Unlock()
	if !ok {
		return ErrNotInterruptable
	}
	return ij.Interrupt()
}
