package memory

import (
	"context"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

func (s *Store) SchedulerStarted(_ context.Context, instanceID string, checkinInterval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instances[instanceID] = &domain.SchedulerInstance{
		InstanceID:      instanceID,
		LastCheckinTime: time.Now(),
		CheckinInterval: checkinInterval,
	}
	return nil
}

func (s *Store) SchedulerPaused(_ context.Context, _ string) error  { return nil }
func (s *Store) SchedulerResumed(_ context.Context, _ string) error { return nil }

func (s *Store) SchedulerShutdown(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instances, instanceID)
	return nil
}

func (s *Store) CheckIn(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[instanceID]
	if !ok {
		return nil
	}
	inst.LastCheckinTime = time.Now()
	return nil
}

func (s *Store) FindFailedInstances(_ context.Context, olderThan time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for id, inst := range s.instances {
		if inst.LastCheckinTime.Before(olderThan) {
			out = append(out, id)
		}
	}
	return out, nil
}

// RecoverFailedInstance reassigns the dead instance's in-flight fires: a
// job that requests recovery gets its trigger released back to WAITING so
// it fires again; everything else is simply released.
func (s *Store) RecoverFailedInstance(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for fid, rec := range s.firedTriggers {
		if rec.InstanceID != instanceID {
			continue
		}
		delete(s.firedTriggers, fid)

		tr, ok := s.triggers[rec.TriggerKey]
		if !ok {
			continue
		}
		if job, ok := s.jobs[rec.JobKey]; ok && job.Capabilities.ConcurrentExecutionDisallowed {
			s.unblockSiblingsLocked(rec.JobKey)
		}
		if rec.RequestsRecovery {
			tr.NextFireTime = rec.ScheduledTime
			tr.State = domain.StateWaiting
		} else if tr.State == domain.StateExecuting || tr.State == domain.StateAcquired {
			tr.State = domain.StateWaiting
		}
	}
	delete(s.instances, instanceID)
	return nil
}
