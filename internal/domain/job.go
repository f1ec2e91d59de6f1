package domain

import "errors"

var (
	ErrJobNotFound         = errors.New("domain: job not found")
	ErrJobAlreadyExists    = errors.New("domain: job already exists")
	ErrNonDurableNoTrigger = errors.New("domain: non-durable job must be stored with at least one trigger")
)

// JobDataMap carries arbitrary string-keyed parameters between the client,
// the trigger, and the executing job. Trigger-level entries override
// job-level entries of the same key when a JobExecutionContext is built
// (see mergedJobDataMap in package scheduler).
type JobDataMap map[string]string

// Clone returns a shallow copy, safe for a caller to mutate independently.
func (m JobDataMap) Clone() JobDataMap {
	if m == nil {
		return nil
	}
	cp := make(JobDataMap, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// JobCapabilities replaces the source's annotation-driven flags
// (@DisallowConcurrentExecution, @PersistJobDataAfterExecution). A job
// implementation reports these explicitly rather than via reflection.
type JobCapabilities struct {
	ConcurrentExecutionDisallowed bool
	PersistJobDataAfterExecution  bool
}

// JobDetail describes a registered unit of work. JobClass is the registered
// name of a Job implementation (see scheduler.JobFactory) rather than a
// reflected class, since Go has no runtime class loading.
type JobDetail struct {
	Key         Key
	JobClass    string
	Description string
	JobDataMap  JobDataMap

	// Durable jobs survive with zero triggers; non-durable jobs are deleted
	// automatically when their last trigger is removed.
	Durable bool

	// RequestsRecovery marks a job whose in-flight fire is re-fired after a
	// peer crash: its trigger is re-armed at the recorded scheduled time.
	RequestsRecovery bool

	Capabilities JobCapabilities
}

// Clone returns a deep-enough copy for safe caller mutation.
func (j *JobDetail) Clone() *JobDetail {
	if j == nil {
		return nil
	}
	cp := *j
	cp.JobDataMap = j.JobDataMap.Clone()
	return &cp
}
