package scheduler

import (
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

// JobExecutionContext is passed to Job.Execute for one fire. JobDataMap is
// the merge of the job's and trigger's data maps, with the trigger's
// entries overriding the job's on key collision — the precedence Quartz's
// own getMergedJobDataMap documents.
type JobExecutionContext struct {
	FireInstanceID    string
	ScheduledFireTime time.Time
	FireTime          time.Time
	PreviousFireTime  time.Time
	NextFireTime      time.Time
	RefireCount       int

	JobDetail  *domain.JobDetail
	Trigger    *domain.Trigger
	JobDataMap domain.JobDataMap
}

// mergedJobDataMap merges job-level and trigger-level data, trigger entries
// winning on key collision.
func mergedJobDataMap(job *domain.JobDetail, tr *domain.Trigger) domain.JobDataMap {
	merged := make(domain.JobDataMap, len(job.JobDataMap)+len(tr.JobDataMap))
	for k, v := range job.JobDataMap {
		merged[k] = v
	}
	for k, v := range tr.JobDataMap {
		merged[k] = v
	}
	return merged
}
