package scheduler

import "context"

// Job is a unit of work a Trigger fires. Implementations register under a
// name with a JobFactory; that name becomes domain.JobDetail.JobClass.
type Job interface {
	Execute(ctx context.Context, jec *JobExecutionContext) error
}

// InterruptableJob lets a job react to Scheduler.Interrupt. Interrupt is
// best-effort: a job that doesn't implement this cannot be preempted once
// its Execute call is running.
type InterruptableJob interface {
	Job
	Interrupt() error
}

// JobFactory resolves a JobDetail's JobClass into a runnable Job instance.
type JobFactory interface {
	New(jobClass string) (Job, error)
}

// JobFactoryFunc adapts a function to JobFactory.
type JobFactoryFunc func(jobClass string) (Job, error)

func (f JobFactoryFunc) New(jobClass string) (Job, error) { return f(jobClass) }
