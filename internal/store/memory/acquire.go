package memory

import (
	"context"
	"sort"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/repository"
	"github.com/quartzgo/quartz/internal/trigger"
)

func (s *Store) AcquireNextTriggers(_ context.Context, noLaterThan time.Time, maxCount int, timeWindow time.Duration) ([]*domain.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := noLaterThan.Add(timeWindow)

	var candidates []*domain.Trigger
	for _, tr := range s.triggers {
		if tr.State != domain.StateWaiting {
			continue
		}
		if tr.NextFireTime.IsZero() || tr.NextFireTime.After(cutoff) {
			continue
		}
		candidates = append(candidates, tr)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.NextFireTime.Equal(b.NextFireTime) {
			return a.NextFireTime.Before(b.NextFireTime)
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Key.String() < b.Key.String()
	})

	var acquired []*domain.Trigger
	blockedJobs := make(map[domain.Key]bool)
	for _, tr := range candidates {
		if len(acquired) >= maxCount {
			break
		}
		job := s.jobs[tr.JobKey]
		if job != nil && job.Capabilities.ConcurrentExecutionDisallowed && s.jobCurrentlyFiringLocked(tr.JobKey) {
			continue
		}
		if blockedJobs[tr.JobKey] {
			continue
		}
		if job != nil && job.Capabilities.ConcurrentExecutionDisallowed {
			blockedJobs[tr.JobKey] = true
		}

		tr.State = domain.StateAcquired
		tr.FireInstanceID = s.nextFireInstanceID()
		acquired = append(acquired, tr.Clone())
	}
	return acquired, nil
}

func (s *Store) jobCurrentlyFiringLocked(jobKey domain.Key) bool {
	for _, tr := range s.triggers {
		if tr.JobKey == jobKey && (tr.State == domain.StateAcquired || tr.State == domain.StateExecuting) {
			return true
		}
	}
	return false
}

func (s *Store) ReleaseAcquiredTrigger(_ context.Context, in *domain.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.triggers[in.Key]
	if !ok {
		return nil
	}
	if tr.State == domain.StateAcquired {
		tr.State = domain.StateWaiting
		tr.FireInstanceID = ""
	}
	return nil
}

func (s *Store) TriggersFired(_ context.Context, instanceID string, in []*domain.Trigger) ([]repository.TriggerFiredResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]repository.TriggerFiredResult, 0, len(in))
	for _, req := range in {
		tr, ok := s.triggers[req.Key]
		if !ok || tr.State != domain.StateAcquired {
			results = append(results, repository.TriggerFiredResult{OK: false})
			continue
		}
		job, ok := s.jobs[tr.JobKey]
		if !ok {
			results = append(results, repository.TriggerFiredResult{OK: false})
			continue
		}

		now := time.Now()
		scheduledTime := tr.NextFireTime
		tr.PreviousFireTime = scheduledTime

		cal, err := s.buildFilterLocked(tr.CalendarName)
		if err != nil {
			results = append(results, repository.TriggerFiredResult{OK: false})
			continue
		}
		if next, ok := trigger.FireTimeAfter(tr, scheduledTime, cal); ok {
			tr.NextFireTime = next
			tr.State = domain.StateExecuting
		} else {
			tr.NextFireTime = time.Time{}
			tr.State = domain.StateComplete
		}

		rec := &domain.FiredTriggerRecord{
			FireInstanceID:                tr.FireInstanceID,
			TriggerKey:                    tr.Key,
			JobKey:                        tr.JobKey,
			InstanceID:                    instanceID,
			FiredTime:                     now,
			ScheduledTime:                 scheduledTime,
			State:                         domain.FiredExecuting,
			ConcurrentExecutionDisallowed: job.Capabilities.ConcurrentExecutionDisallowed,
			RequestsRecovery:              job.RequestsRecovery,
			Priority:                      tr.Priority,
		}
		s.firedTriggers[tr.FireInstanceID] = rec

		if job.Capabilities.ConcurrentExecutionDisallowed {
			s.blockSiblingsLocked(tr.JobKey)
		}

		results = append(results, repository.TriggerFiredResult{
			Record:  rec,
			Trigger: tr.Clone(),
			Job:     job.Clone(),
			OK:      true,
		})
	}
	return results, nil
}

func (s *Store) blockSiblingsLocked(jobKey domain.Key) {
	for _, sib := range s.triggers {
		if sib.JobKey != jobKey {
			continue
		}
		switch sib.State {
		case domain.StateWaiting:
			sib.State = domain.StateBlocked
		case domain.StatePaused:
			sib.State = domain.StatePausedBlocked
		}
	}
}

func (s *Store) unblockSiblingsLocked(jobKey domain.Key) {
	for _, sib := range s.triggers {
		if sib.JobKey != jobKey {
			continue
		}
		switch sib.State {
		case domain.StateBlocked:
			sib.State = domain.StateWaiting
		case domain.StatePausedBlocked:
			sib.State = domain.StatePaused
		}
	}
}

func (s *Store) TriggeredJobComplete(_ context.Context, in *domain.Trigger, job *domain.JobDetail, instruction domain.CompletionInstruction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.firedTriggers, in.FireInstanceID)

	if job.Capabilities.ConcurrentExecutionDisallowed {
		s.unblockSiblingsLocked(job.Key)
	}

	tr, ok := s.triggers[in.Key]
	if !ok {
		return nil
	}

	switch instruction {
	case domain.DeleteTrigger:
		_, err := s.removeTriggerLocked(tr.Key)
		return err

	case domain.SetTriggerComplete:
		tr.State = domain.StateComplete
		return nil

	case domain.SetAllJobTriggersComplete:
		for _, sib := range s.triggers {
			if sib.JobKey == job.Key {
				sib.State = domain.StateComplete
			}
		}
		return nil

	case domain.SetTriggerError:
		tr.State = domain.StateError
		return nil

	case domain.SetAllJobTriggersError:
		for _, sib := range s.triggers {
			if sib.JobKey == job.Key {
				sib.State = domain.StateError
			}
		}
		return nil

	case domain.ReExecuteJob:
		tr.NextFireTime = tr.PreviousFireTime
		tr.State = domain.StateWaiting
		return nil

	default: // NoOp
		// NextFireTime/State were already advanced in TriggersFired; only
		// EXECUTING needs to fall back to WAITING here. A trigger already
		// marked COMPLETE there (schedule exhausted) stays COMPLETE.
		if tr.State == domain.StateExecuting {
			tr.State = domain.StateWaiting
		}
		return nil
	}
}
