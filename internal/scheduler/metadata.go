package scheduler

import "time"

// Metadata is a read-only snapshot of this instance's identity and
// lifetime counters, surfaced over the admin HTTP surface.
type Metadata struct {
	InstanceID     string
	InstanceName   string
	State          State
	RunningSince   time.Time
	JobsExecuted   int64
	JobsFailed     int64
	ThreadPoolSize int
}

func (s *Scheduler) Metadata() Metadata {
	return Metadata{
		InstanceID:     s.cfg.InstanceID,
		InstanceName:   s.cfg.InstanceName,
		State:          s.State(),
		RunningSince:   s.startedAt,
		JobsExecuted:   s.jobsExecuted.Load(),
		JobsFailed:     s.jobsFailed.Load(),
		ThreadPoolSize: s.cfg.ThreadCount,
	}
}
