package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/store/memory"
)

func testConfig(instanceID string) Config {
	return Config{
		InstanceID:       instanceID,
		InstanceName:     "test",
		ThreadCount:      4,
		MisfireThreshold: time.Minute,
		IdleWaitTime:     20 * time.Millisecond,
		AcquireBatchSize: 5,
		ClusterCheckin:   time.Second,
		DbRetryInterval:  20 * time.Millisecond,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type countingJob struct {
	count *atomic.Int32
	done  chan struct{}
}

func (j *countingJob) Execute(ctx context.Context, jec *JobExecutionContext) error {
	j.count.Add(1)
	select {
	case j.done <- struct{}{}:
	default:
	}
	return nil
}

func newCountingFactory(count *atomic.Int32, done chan struct{}) JobFactoryFunc {
	return func(jobClass string) (Job, error) {
		return &countingJob{count: count, done: done}, nil
	}
}

func TestSchedulerFiresDueTrigger(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "counting", Durable: true}
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			Key:          domain.Key{Name: "t1", Group: domain.DefaultGroup},
			JobKey:       jobKey,
			StartTime:    time.Now(),
			Priority:     domain.DefaultPriority,
			NextFireTime: time.Now().Add(-time.Second),
			State:        domain.StateWaiting,
		},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: time.Hour, RepeatCount: 0},
		},
	}
	if err := store.StoreJobAndTrigger(ctx, job, tr); err != nil {
		t.Fatalf("StoreJobAndTrigger: %v", err)
	}

	var count atomic.Int32
	done := make(chan struct{}, 1)
	sched := New(testConfig("inst-1"), store, newCountingFactory(&count, done), testLogger())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := sched.Start(runCtx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not fired within timeout")
	}

	if count.Load() != 1 {
		t.Fatalf("job fired %d times, want 1", count.Load())
	}
}

func TestSchedulerMetadataReflectsState(t *testing.T) {
	store := memory.New()
	var count atomic.Int32
	done := make(chan struct{}, 1)
	sched := New(testConfig("inst-2"), store, newCountingFactory(&count, done), testLogger())

	if sched.Metadata().State != StateCreated {
		t.Fatalf("expected initial state CREATED, got %v", sched.Metadata().State)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sched.Metadata().State != StateStarted {
		t.Fatalf("expected state STARTED after Start, got %v", sched.Metadata().State)
	}
}

func TestSchedulerInterruptWithoutRunningJobFails(t *testing.T) {
	store := memory.New()
	var count atomic.Int32
	done := make(chan struct{}, 1)
	sched := New(testConfig("inst-3"), store, newCountingFactory(&count, done), testLogger())

	err := sched.Interrupt(domain.Key{Name: "missing", Group: domain.DefaultGroup})
	if err != ErrNotInterruptable {
		t.Fatalf("got err %v, want ErrNotInterruptable", err)
	}
}

func TestSchedulerStandbyStopsAcquisition(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "counting", Durable: true}
	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			Key:          domain.Key{Name: "t1", Group: domain.DefaultGroup},
			JobKey:       jobKey,
			StartTime:    time.Now(),
			Priority:     domain.DefaultPriority,
			NextFireTime: time.Now().Add(-time.Second),
			State:        domain.StateWaiting,
		},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: time.Hour, RepeatCount: 0},
		},
	}
	if err := store.StoreJobAndTrigger(ctx, job, tr); err != nil {
		t.Fatalf("StoreJobAndTrigger: %v", err)
	}

	var count atomic.Int32
	done := make(chan struct{}, 1)
	sched := New(testConfig("inst-4"), store, newCountingFactory(&count, done), testLogger())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Standby(runCtx); err != nil {
		t.Fatalf("Standby: %v", err)
	}
	go sched.loop(runCtx)

	select {
	case <-done:
		t.Fatal("job fired while scheduler was in standby")
	case <-time.After(100 * time.Millisecond):
	}
}
