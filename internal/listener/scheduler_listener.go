package listener

import (
	"context"

	"github.com/quartzgo/quartz/internal/domain"
)

// SchedulerListener observes scheduler-wide lifecycle events, unscoped by
// any matcher since they aren't about a specific job/trigger key.
type SchedulerListener interface {
	Name() string
	SchedulerStarted(ctx context.Context)
	SchedulerPaused(ctx context.Context)
	SchedulerResumed(ctx context.Context)
	SchedulerShuttingDown(ctx context.Context)
	SchedulerShutdown(ctx context.Context)
	SchedulerError(ctx context.Context, msg string, err error)
	JobScheduled(ctx context.Context, tr *domain.Trigger)
	JobUnscheduled(ctx context.Context, key domain.Key)
	JobDeleted(ctx context.Context, key domain.Key)
	JobPaused(ctx context.Context, key domain.Key)
	JobResumed(ctx context.Context, key domain.Key)
}

// SchedulerListenerRegistry fans scheduler-wide events out to every
// registered listener, in registration order.
type SchedulerListenerRegistry struct {
	listeners []SchedulerListener
}

func NewSchedulerListenerRegistry() *SchedulerListenerRegistry {
	return &SchedulerListenerRegistry{}
}

func (r *SchedulerListenerRegistry) Add(l SchedulerListener) {
	r.listeners = append(r.listeners, l)
}

func (r *SchedulerListenerRegistry) Remove(name string) bool {
	for i, l := range r.listeners {
		if l.Name() == name {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (r *SchedulerListenerRegistry) FireSchedulerStarted(ctx context.Context) {
	for _, l := range r.listeners {
		l.SchedulerStarted(ctx)
	}
}

func (r *SchedulerListenerRegistry) FireSchedulerPaused(ctx context.Context) {
	for _, l := range r.listeners {
		l.SchedulerPaused(ctx)
	}
}

func (r *SchedulerListenerRegistry) FireSchedulerResumed(ctx context.Context) {
	for _, l := range r.listeners {
		l.SchedulerResumed(ctx)
	}
}

func (r *SchedulerListenerRegistry) FireSchedulerShuttingDown(ctx context.Context) {
	for _, l := range r.listeners {
		l.SchedulerShuttingDown(ctx)
	}
}

func (r *SchedulerListenerRegistry) FireSchedulerShutdown(ctx context.Context) {
	for _, l := range r.listeners {
		l.SchedulerShutdown(ctx)
	}
}

func (r *SchedulerListenerRegistry) FireSchedulerError(ctx context.Context, msg string, err error) {
	for _, l := range r.listeners {
		l.SchedulerError(ctx, msg, err)
	}
}

func (r *SchedulerListenerRegistry) FireJobScheduled(ctx context.Context, tr *domain.Trigger) {
	for _, l := range r.listeners {
		l.JobScheduled(ctx, tr)
	}
}

func (r *SchedulerListenerRegistry) FireJobUnscheduled(ctx context.Context, key domain.Key) {
	for _, l := range r.listeners {
		l.JobUnscheduled(ctx, key)
	}
}

func (r *SchedulerListenerRegistry) FireJobDeleted(ctx context.Context, key domain.Key) {
	for _, l := range r.listeners {
		l.JobDeleted(ctx, key)
	}
}

func (r *SchedulerListenerRegistry) FireJobPaused(ctx context.Context, key domain.Key) {
	for _, l := range r.listeners {
		l.JobPaused(ctx, key)
	}
}

func (r *SchedulerListenerRegistry) FireJobResumed(ctx context.Context, key domain.Key) {
	for _, l := range r.listeners {
		l.JobResumed(ctx, key)
	}
}
