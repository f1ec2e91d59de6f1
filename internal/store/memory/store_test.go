package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

func newTestTrigger(name string, jobKey domain.Key, nextFire time.Time) *domain.Trigger {
	return &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			Key:          domain.Key{Name: name, Group: domain.DefaultGroup},
			JobKey:       jobKey,
			StartTime:    nextFire,
			Priority:     domain.DefaultPriority,
			NextFireTime: nextFire,
			State:        domain.StateWaiting,
		},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: time.Minute, RepeatCount: domain.RepeatIndefinitely},
		},
	}
}

func TestStoreTriggerRejectsInvalidCronExpression(t *testing.T) {
	s := New()
	ctx := context.Background()
	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "echo", Durable: true}
	if err := s.StoreJob(ctx, job, false); err != nil {
		t.Fatalf("StoreJob: %v", err)
	}

	tr := &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			Key:       domain.Key{Name: "bad-cron", Group: domain.DefaultGroup},
			JobKey:    jobKey,
			StartTime: time.Now(),
		},
		Schedule: domain.Schedule{
			Kind: domain.ScheduleCron,
			Cron: &domain.CronSchedule{Expression: "not a cron expression", Location: time.UTC},
		},
	}

	if err := s.StoreTrigger(ctx, tr, false); err == nil {
		t.Fatal("expected StoreTrigger to fail synchronously for an invalid cron expression")
	}
	if _, err := s.RetrieveTrigger(ctx, tr.Key); err == nil {
		t.Fatal("expected the rejected trigger not to be persisted")
	}
}

func TestStoreJobAndTriggerRoundtrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "echo", Durable: true}
	tr := newTestTrigger("t1", jobKey, time.Now())

	if err := s.StoreJobAndTrigger(ctx, job, tr); err != nil {
		t.Fatalf("StoreJobAndTrigger: %v", err)
	}

	got, err := s.RetrieveTrigger(ctx, tr.Key)
	if err != nil {
		t.Fatalf("RetrieveTrigger: %v", err)
	}
	if got.JobKey != jobKey {
		t.Fatalf("got job key %v, want %v", got.JobKey, jobKey)
	}
}

func TestRemoveNonDurableJobDeletesJobWithLastTrigger(t *testing.T) {
	s := New()
	ctx := context.Background()
	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "echo", Durable: false}
	tr := newTestTrigger("t1", jobKey, time.Now())

	if err := s.StoreJobAndTrigger(ctx, job, tr); err != nil {
		t.Fatalf("StoreJobAndTrigger: %v", err)
	}
	if _, err := s.RemoveTrigger(ctx, tr.Key); err != nil {
		t.Fatalf("RemoveTrigger: %v", err)
	}
	if exists, _ := s.CheckExistsJob(ctx, jobKey); exists {
		t.Fatalf("expected non-durable job to be removed with its last trigger")
	}
}

func TestAcquireNextTriggersIsExclusiveUnderConcurrency(t *testing.T) {
	s := New()
	ctx := context.Background()
	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "echo", Durable: true}
	if err := s.StoreJob(ctx, job, false); err != nil {
		t.Fatalf("StoreJob: %v", err)
	}

	now := time.Now()
	const n = 20
	for i := 0; i < n; i++ {
		tr := newTestTrigger(string(rune('a'+i)), jobKey, now.Add(-time.Minute))
		if err := s.StoreTrigger(ctx, tr, false); err != nil {
			t.Fatalf("StoreTrigger: %v", err)
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquiredKeys := make(map[domain.Key]int)

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired, err := s.AcquireNextTriggers(ctx, now, n, time.Minute)
			if err != nil {
				t.Errorf("AcquireNextTriggers: %v", err)
				return
			}
			mu.Lock()
			for _, tr := range acquired {
				acquiredKeys[tr.Key]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	total := 0
	for k, count := range acquiredKeys {
		if count != 1 {
			t.Fatalf("trigger %v acquired %d times, want exactly 1", k, count)
		}
		total++
	}
	if total != n {
		t.Fatalf("expected all %d triggers acquired exactly once total, got %d", n, total)
	}
}

func TestConcurrentExecutionDisallowedBlocksSiblingTriggers(t *testing.T) {
	s := New()
	ctx := context.Background()
	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{
		Key:          jobKey,
		JobClass:     "echo",
		Durable:      true,
		Capabilities: domain.JobCapabilities{ConcurrentExecutionDisallowed: true},
	}
	if err := s.StoreJob(ctx, job, false); err != nil {
		t.Fatalf("StoreJob: %v", err)
	}

	now := time.Now()
	tr1 := newTestTrigger("t1", jobKey, now.Add(-time.Minute))
	tr2 := newTestTrigger("t2", jobKey, now.Add(-time.Minute))
	if err := s.StoreTrigger(ctx, tr1, false); err != nil {
		t.Fatalf("StoreTrigger: %v", err)
	}
	if err := s.StoreTrigger(ctx, tr2, false); err != nil {
		t.Fatalf("StoreTrigger: %v", err)
	}

	acquired, err := s.AcquireNextTriggers(ctx, now, 10, time.Minute)
	if err != nil {
		t.Fatalf("AcquireNextTriggers: %v", err)
	}
	if len(acquired) != 1 {
		t.Fatalf("expected only one trigger acquired for a concurrency-disallowed job, got %d", len(acquired))
	}

	fired, err := s.TriggersFired(ctx, "inst-1", acquired)
	if err != nil {
		t.Fatalf("TriggersFired: %v", err)
	}
	if len(fired) != 1 || !fired[0].OK {
		t.Fatalf("expected exactly one successful fire result")
	}

	t1, err := s.RetrieveTrigger(ctx, tr1.Key)
	if err != nil {
		t.Fatalf("RetrieveTrigger: %v", err)
	}
	t2, err := s.RetrieveTrigger(ctx, tr2.Key)
	if err != nil {
		t.Fatalf("RetrieveTrigger: %v", err)
	}

	executing := t1.State == domain.StateExecuting || t2.State == domain.StateExecuting
	oneBlocked := t1.State == domain.StateBlocked || t2.State == domain.StateBlocked
	if !executing || !oneBlocked {
		t.Fatalf("expected one trigger EXECUTING and its sibling BLOCKED, got t1=%v t2=%v", t1.State, t2.State)
	}
}

func TestPauseAndResumeTrigger(t *testing.T) {
	s := New()
	ctx := context.Background()
	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "echo", Durable: true}
	if err := s.StoreJob(ctx, job, false); err != nil {
		t.Fatalf("StoreJob: %v", err)
	}
	tr := newTestTrigger("t1", jobKey, time.Now())
	if err := s.StoreTrigger(ctx, tr, false); err != nil {
		t.Fatalf("StoreTrigger: %v", err)
	}

	if err := s.PauseTrigger(ctx, tr.Key); err != nil {
		t.Fatalf("PauseTrigger: %v", err)
	}
	got, _ := s.RetrieveTrigger(ctx, tr.Key)
	if got.State != domain.StatePaused {
		t.Fatalf("expected PAUSED, got %v", got.State)
	}

	if err := s.ResumeTrigger(ctx, tr.Key); err != nil {
		t.Fatalf("ResumeTrigger: %v", err)
	}
	got, _ = s.RetrieveTrigger(ctx, tr.Key)
	if got.State != domain.StateWaiting {
		t.Fatalf("expected WAITING after resume, got %v", got.State)
	}
}

func TestTriggersFiredAdvancesNextFireTime(t *testing.T) {
	s := New()
	ctx := context.Background()
	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "echo", Durable: true}
	if err := s.StoreJob(ctx, job, false); err != nil {
		t.Fatalf("StoreJob: %v", err)
	}

	now := time.Now()
	tr := newTestTrigger("t1", jobKey, now.Add(-time.Minute))
	if err := s.StoreTrigger(ctx, tr, false); err != nil {
		t.Fatalf("StoreTrigger: %v", err)
	}

	acquired, err := s.AcquireNextTriggers(ctx, now, 1, time.Minute)
	if err != nil || len(acquired) != 1 {
		t.Fatalf("AcquireNextTriggers: %v, %d", err, len(acquired))
	}
	fired, err := s.TriggersFired(ctx, "inst-1", acquired)
	if err != nil || len(fired) != 1 || !fired[0].OK {
		t.Fatalf("TriggersFired: %v", err)
	}

	// NextFireTime must already be advanced (and State EXECUTING) as soon
	// as TriggersFired returns, so PreviousFireTime < NextFireTime holds
	// for the whole job-execution window, not just after completion.
	if fired[0].Trigger.State != domain.StateExecuting {
		t.Fatalf("expected EXECUTING right after fire, got %v", fired[0].Trigger.State)
	}
	if !fired[0].Trigger.NextFireTime.After(fired[0].Trigger.PreviousFireTime) {
		t.Fatalf("expected NextFireTime to already be advanced past PreviousFireTime, got prev=%v next=%v",
			fired[0].Trigger.PreviousFireTime, fired[0].Trigger.NextFireTime)
	}
	advancedNextFireTime := fired[0].Trigger.NextFireTime

	if err := s.TriggeredJobComplete(ctx, fired[0].Trigger, fired[0].Job, domain.NoOp); err != nil {
		t.Fatalf("TriggeredJobComplete: %v", err)
	}

	got, err := s.RetrieveTrigger(ctx, tr.Key)
	if err != nil {
		t.Fatalf("RetrieveTrigger: %v", err)
	}
	if got.State != domain.StateWaiting {
		t.Fatalf("expected WAITING, got %v", got.State)
	}
	if !got.NextFireTime.Equal(advancedNextFireTime) {
		t.Fatalf("expected Complete to leave NextFireTime unchanged at %v, got %v", advancedNextFireTime, got.NextFireTime)
	}
}

func TestTriggersFiredCompletesExhaustedSchedule(t *testing.T) {
	s := New()
	ctx := context.Background()
	jobKey := domain.Key{Name: "job1", Group: domain.DefaultGroup}
	job := &domain.JobDetail{Key: jobKey, JobClass: "echo", Durable: true}
	if err := s.StoreJob(ctx, job, false); err != nil {
		t.Fatalf("StoreJob: %v", err)
	}

	now := time.Now()
	tr := newTestTrigger("t1", jobKey, now.Add(-time.Minute))
	tr.Schedule.Simple.RepeatCount = 0 // one-shot: no further fire time
	if err := s.StoreTrigger(ctx, tr, false); err != nil {
		t.Fatalf("StoreTrigger: %v", err)
	}

	acquired, err := s.AcquireNextTriggers(ctx, now, 1, time.Minute)
	if err != nil || len(acquired) != 1 {
		t.Fatalf("AcquireNextTriggers: %v, %d", err, len(acquired))
	}
	fired, err := s.TriggersFired(ctx, "inst-1", acquired)
	if err != nil || len(fired) != 1 || !fired[0].OK {
		t.Fatalf("TriggersFired: %v", err)
	}

	if fired[0].Trigger.State != domain.StateComplete {
		t.Fatalf("expected COMPLETE at fire for exhausted schedule, got %v", fired[0].Trigger.State)
	}

	if err := s.TriggeredJobComplete(ctx, fired[0].Trigger, fired[0].Job, domain.NoOp); err != nil {
		t.Fatalf("TriggeredJobComplete: %v", err)
	}

	got, err := s.RetrieveTrigger(ctx, tr.Key)
	if err != nil {
		t.Fatalf("RetrieveTrigger: %v", err)
	}
	if got.State != domain.StateComplete {
		t.Fatalf("expected trigger to stay COMPLETE, got %v", got.State)
	}
}
