// Command seed registers a handful of example jobs and triggers — one per
// schedule kind — against the clustered Postgres store, for exercising a
// freshly started cluster without writing any client code.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quartzgo/quartz/config"
	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/jobs"
	"github.com/quartzgo/quartz/internal/store/postgres"
	"github.com/quartzgo/quartz/internal/trigger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	store := postgres.New(pool, "seed-tool")

	start := time.Now().Add(5 * time.Second)

	seeds := []struct {
		job *domain.JobDetail
		tr  *domain.Trigger
	}{
		simpleSeed(start),
		cronSeed(start),
		calendarIntervalSeed(start),
		dailyTimeIntervalSeed(start),
	}

	for _, s := range seeds {
		fireTime, ok := trigger.ComputeFirstFireTime(s.tr, nil)
		if !ok {
			log.Fatalf("seed %s: schedule never fires", s.tr.Key)
		}
		s.tr.NextFireTime = fireTime
		s.tr.State = domain.StateWaiting

		if err := store.StoreJobAndTrigger(ctx, s.job, s.tr); err != nil {
			log.Fatalf("seed %s: %v", s.tr.Key, err)
		}
		fmt.Printf("seeded %-28s first fire at %s\n", s.tr.Key, fireTime.Format(time.RFC3339))
	}

	fmt.Println()
	fmt.Println("start a scheduler instance to see them fire:")
	fmt.Println("  go run ./cmd/scheduler")
}

func httpJobDetail(key domain.Key, url string) *domain.JobDetail {
	return &domain.JobDetail{
		Key:              key,
		JobClass:         jobs.HTTPClassName,
		Description:      "seed job hitting " + url,
		JobDataMap:       domain.JobDataMap{"url": url, "method": "GET"},
		Durable:          false,
		RequestsRecovery: true,
	}
}

func simpleSeed(start time.Time) (s struct {
	job *domain.JobDetail
	tr  *domain.Trigger
}) {
	jobKey, _ := domain.NewKey("simple-ping", "seed")
	trKey, _ := domain.NewKey("simple-ping-trigger", "seed")
	s.job = httpJobDetail(jobKey, "https://httpbin.org/get")
	s.tr = &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			Key:       trKey,
			JobKey:    jobKey,
			StartTime: start,
			Priority:  domain.DefaultPriority,
			Misfire:   domain.MisfireSmartPolicy,
		},
		Schedule: domain.Schedule{
			Kind:   domain.ScheduleSimple,
			Simple: &domain.SimpleSchedule{RepeatInterval: 30 * time.Second, RepeatCount: 9},
		},
	}
	return s
}

func cronSeed(start time.Time) (s struct {
	job *domain.JobDetail
	tr  *domain.Trigger
}) {
	jobKey, _ := domain.NewKey("cron-ping", "seed")
	trKey, _ := domain.NewKey("cron-ping-trigger", "seed")
	s.job = httpJobDetail(jobKey, "https://httpbin.org/get")
	s.tr = &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			Key:       trKey,
			JobKey:    jobKey,
			StartTime: start,
			Priority:  domain.DefaultPriority,
			Misfire:   domain.MisfireSmartPolicy,
		},
		Schedule: domain.Schedule{
			Kind: domain.ScheduleCron,
			Cron: &domain.CronSchedule{Expression: "0 * * * * *", Location: time.UTC},
		},
	}
	return s
}

func calendarIntervalSeed(start time.Time) (s struct {
	job *domain.JobDetail
	tr  *domain.Trigger
}) {
	jobKey, _ := domain.NewKey("daily-report", "seed")
	trKey, _ := domain.NewKey("daily-report-trigger", "seed")
	s.job = httpJobDetail(jobKey, "https://httpbin.org/post")
	s.tr = &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			Key:       trKey,
			JobKey:    jobKey,
			StartTime: start,
			Priority:  domain.DefaultPriority,
			Misfire:   domain.MisfireSmartPolicy,
		},
		Schedule: domain.Schedule{
			Kind:             domain.ScheduleCalendarInterval,
			CalendarInterval: &domain.CalendarIntervalSchedule{Interval: 1, Unit: domain.UnitDay, Location: time.UTC},
		},
	}
	return s
}

func dailyTimeIntervalSeed(start time.Time) (s struct {
	job *domain.JobDetail
	tr  *domain.Trigger
}) {
	jobKey, _ := domain.NewKey("business-hours-poll", "seed")
	trKey, _ := domain.NewKey("business-hours-poll-trigger", "seed")
	s.job = httpJobDetail(jobKey, "https://httpbin.org/get")

	var weekdays [7]bool
	for _, d := range []int{1, 2, 3, 4, 5} { // Mon-Fri, 0=Sunday
		weekdays[d] = true
	}

	s.tr = &domain.Trigger{
		TriggerCommon: domain.TriggerCommon{
			Key:       trKey,
			JobKey:    jobKey,
			StartTime: start,
			Priority:  domain.DefaultPriority,
			Misfire:   domain.MisfireSmartPolicy,
		},
		Schedule: domain.Schedule{
			Kind: domain.ScheduleDailyTimeInterval,
			DailyTimeInterval: &domain.DailyTimeIntervalSchedule{
				StartTimeOfDay: domain.TimeOfDay{Hour: 8},
				EndTimeOfDay:   domain.TimeOfDay{Hour: 17},
				DaysOfWeek:     weekdays,
				Interval:       72,
				Unit:           domain.UnitMinute,
				RepeatCount:    domain.RepeatIndefinitely,
				Location:       time.UTC,
			},
		},
	}
	return s
}
