package listener

import (
	"context"

	"github.com/quartzgo/quartz/internal/domain"
)

// JobListener observes a job's execution lifecycle.
type JobListener interface {
	Name() string
	JobToBeExecuted(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger)
	JobExecutionVetoed(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger)
	JobWasExecuted(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger, jobErr error)
}

type jobEntry struct {
	l       JobListener
	matcher Matcher
}

// JobListenerRegistry is the JobListener analogue of TriggerListenerRegistry.
type JobListenerRegistry struct {
	entries []jobEntry
}

func NewJobListenerRegistry() *JobListenerRegistry {
	return &JobListenerRegistry{}
}

func (r *JobListenerRegistry) Add(l JobListener, m Matcher) {
	if m == nil {
		m = Any()
	}
	r.entries = append(r.entries, jobEntry{l: l, matcher: m})
}

func (r *JobListenerRegistry) Remove(name string) bool {
	for i, e := range r.entries {
		if e.l.Name() == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *JobListenerRegistry) matching(key domain.Key) []JobListener {
	var out []JobListener
	for _, e := range r.entries {
		if e.matcher.Matches(key) {
			out = append(out, e.l)
		}
	}
	return out
}

func (r *JobListenerRegistry) FireJobToBeExecuted(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger) {
	for _, l := range r.matching(job.Key) {
		l.JobToBeExecuted(ctx, job, tr)
	}
}

func (r *JobListenerRegistry) FireJobExecutionVetoed(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger) {
	for _, l := range r.matching(job.Key) {
		l.JobExecutionVetoed(ctx, job, tr)
	}
}

func (r *JobListenerRegistry) FireJobWasExecuted(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger, jobErr error) {
	for _, l := range r.matching(job.Key) {
		l.JobWasExecuted(ctx, job, tr, jobErr)
	}
}
