package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/repository"
	"github.com/quartzgo/quartz/internal/trigger"
)

const jobSelectColumns = `SELECT job_name, job_group, description, job_class, durable, requests_recovery, job_data_map, capabilities`

func (s *Store) loadJob(ctx context.Context, q pgxPool, key domain.Key) (*domain.JobDetail, error) {
	row := q.QueryRow(ctx, jobSelectColumns+` FROM job_details WHERE job_name=$1 AND job_group=$2`, key.Name, key.Group)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return job, err
}

// AcquireNextTriggers holds TRIGGER_ACCESS for the whole select-then-update
// sequence, mirroring the row-lock semaphore pattern the classic JDBC job
// store uses to keep concurrent schedulers from double-acquiring a trigger.
func (s *Store) AcquireNextTriggers(ctx context.Context, noLaterThan time.Time, maxCount int, timeWindow time.Duration) ([]*domain.Trigger, error) {
	if err := s.lock.Acquire(ctx, repository.LockTriggerAccess, s.instanceID); err != nil {
		return nil, err
	}
	defer s.lock.Release(ctx, repository.LockTriggerAccess, s.instanceID)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cutoff := noLaterThan.Add(timeWindow)
	rows, err := tx.Query(ctx, triggerSelectColumns+`
		FROM triggers
		WHERE trigger_state=$1 AND next_fire_time <= $2
		ORDER BY next_fire_time, priority DESC, trigger_group, trigger_name
		LIMIT $3
		FOR UPDATE SKIP LOCKED`, string(domain.StateWaiting), cutoff, maxCount*4)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquire next triggers: %w", err)
	}
	candidates, err := scanTriggers(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("postgres: scan acquire candidates: %w", err)
	}

	blocked := make(map[domain.Key]bool)
	var acquired []*domain.Trigger
	for _, tr := range candidates {
		if len(acquired) >= maxCount {
			break
		}
		if blocked[tr.JobKey] {
			continue
		}
		job, err := s.loadJob(ctx, tx, tr.JobKey)
		if err != nil {
			return nil, fmt.Errorf("postgres: load job for trigger %s: %w", tr.Key, err)
		}
		if job.Capabilities.ConcurrentExecutionDisallowed {
			blocked[tr.JobKey] = true
		}

		tr.State = domain.StateAcquired
		tr.FireInstanceID = fmt.Sprintf("%s-%d", s.instanceID, time.Now().UnixNano())
		if _, err := tx.Exec(ctx, `UPDATE triggers SET trigger_state=$1, fire_instance_id=$2 WHERE trigger_name=$3 AND trigger_group=$4`,
			string(domain.StateAcquired), tr.FireInstanceID, tr.Key.Name, tr.Key.Group); err != nil {
			return nil, fmt.Errorf("postgres: mark trigger acquired: %w", err)
		}
		acquired = append(acquired, tr)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit acquire: %w", err)
	}
	return acquired, nil
}

func (s *Store) ReleaseAcquiredTrigger(ctx context.Context, tr *domain.Trigger) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE triggers SET trigger_state=$1, fire_instance_id='' WHERE trigger_name=$2 AND trigger_group=$3 AND trigger_state=$4`,
		string(domain.StateWaiting), tr.Key.Name, tr.Key.Group, string(domain.StateAcquired))
	if err != nil {
		return fmt.Errorf("postgres: release acquired trigger: %w", err)
	}
	return nil
}

func (s *Store) TriggersFired(ctx context.Context, instanceID string, in []*domain.Trigger) ([]repository.TriggerFiredResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	results := make([]repository.TriggerFiredResult, 0, len(in))
	for _, req := range in {
		row := tx.QueryRow(ctx, triggerSelectColumns+` FROM triggers WHERE trigger_name=$1 AND trigger_group=$2 FOR UPDATE`, req.Key.Name, req.Key.Group)
		tr, err := scanTrigger(row)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && tr.State != domain.StateAcquired) {
			results = append(results, repository.TriggerFiredResult{OK: false})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("postgres: lookup fired trigger: %w", err)
		}

		job, err := s.loadJob(ctx, tx, tr.JobKey)
		if err != nil {
			results = append(results, repository.TriggerFiredResult{OK: false})
			continue
		}

		now := time.Now()
		scheduledTime := tr.NextFireTime
		tr.PreviousFireTime = scheduledTime

		cal, err := s.buildFilter(ctx, tx, tr.CalendarName)
		if err != nil {
			return nil, fmt.Errorf("postgres: build calendar filter for fired trigger: %w", err)
		}
		if next, ok := trigger.FireTimeAfter(tr, scheduledTime, cal); ok {
			tr.NextFireTime = next
			tr.State = domain.StateExecuting
		} else {
			tr.NextFireTime = time.Time{}
			tr.State = domain.StateComplete
		}

		if _, err := tx.Exec(ctx, `UPDATE triggers SET trigger_state=$1, prev_fire_time=$2, next_fire_time=$3 WHERE trigger_name=$4 AND trigger_group=$5`,
			string(tr.State), tr.PreviousFireTime, nullableTime(tr.NextFireTime), tr.Key.Name, tr.Key.Group); err != nil {
			return nil, fmt.Errorf("postgres: mark trigger executing: %w", err)
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
		if _, err := tx.Exec(ctx, `
			INSERT INTO fired_triggers (fire_instance_id, trigger_name, trigger_group, job_name, job_group, instance_id, fired_time, scheduled_time, state, concurrent_exec_disallowed, requests_recovery, priority)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			rec.FireInstanceID, rec.TriggerKey.Name, rec.TriggerKey.Group, rec.JobKey.Name, rec.JobKey.Group,
			rec.InstanceID, rec.FiredTime, rec.ScheduledTime, string(rec.State), rec.ConcurrentExecutionDisallowed, rec.RequestsRecovery, rec.Priority); err != nil {
			return nil, fmt.Errorf("postgres: insert fired trigger: %w", err)
		}

		if job.Capabilities.ConcurrentExecutionDisallowed {
			if err := s.blockSiblings(ctx, tx, job.Key); err != nil {
				return nil, err
			}
		}

		results = append(results, repository.TriggerFiredResult{Record: rec, Trigger: tr, Job: job, OK: true})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit triggers fired: %w", err)
	}
	return results, nil
}

func (s *Store) blockSiblings(ctx context.Context, q pgxPool, jobKey domain.Key) error {
	_, err := q.Exec(ctx, `
		UPDATE triggers SET trigger_state=CASE trigger_state WHEN $1 THEN $2 WHEN $3 THEN $4 ELSE trigger_state END
		WHERE job_name=$5 AND job_group=$6 AND trigger_state IN ($1,$3)`,
		string(domain.StateWaiting), string(domain.StateBlocked),
		string(domain.StatePaused), string(domain.StatePausedBlocked),
		jobKey.Name, jobKey.Group)
	if err != nil {
		return fmt.Errorf("postgres: block sibling triggers: %w", err)
	}
	return nil
}

func (s *Store) unblockSiblings(ctx context.Context, q pgxPool, jobKey domain.Key) error {
	_, err := q.Exec(ctx, `
		UPDATE triggers SET trigger_state=CASE trigger_state WHEN $1 THEN $2 WHEN $3 THEN $4 ELSE trigger_state END
		WHERE job_name=$5 AND job_group=$6 AND trigger_state IN ($1,$3)`,
		string(domain.StateBlocked), string(domain.StateWaiting),
		string(domain.StatePausedBlocked), string(domain.StatePaused),
		jobKey.Name, jobKey.Group)
	if err != nil {
		return fmt.Errorf("postgres: unblock sibling triggers: %w", err)
	}
	return nil
}

func (s *Store) TriggeredJobComplete(ctx context.Context, in *domain.Trigger, job *domain.JobDetail, instruction domain.CompletionInstruction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM fired_triggers WHERE fire_instance_id=$1`, in.FireInstanceID); err != nil {
		return fmt.Errorf("postgres: clear fired trigger: %w", err)
	}

	if job.Capabilities.ConcurrentExecutionDisallowed {
		if err := s.unblockSiblings(ctx, tx, job.Key); err != nil {
			return err
		}
	}

	switch instruction {
	case domain.DeleteTrigger:
		if _, err := tx.Exec(ctx, `DELETE FROM triggers WHERE trigger_name=$1 AND trigger_group=$2`, in.Key.Name, in.Key.Group); err != nil {
			return fmt.Errorf("postgres: delete trigger on completion: %w", err)
		}

	case domain.SetTriggerComplete:
		if err := s.setTriggerState(ctx, tx, in.Key, domain.StateComplete); err != nil {
			return err
		}

	case domain.SetAllJobTriggersComplete:
		if err := s.setJobTriggersState(ctx, tx, job.Key, domain.StateComplete); err != nil {
			return err
		}

	case domain.SetTriggerError:
		if err := s.setTriggerState(ctx, tx, in.Key, domain.StateError); err != nil {
			return err
		}

	case domain.SetAllJobTriggersError:
		if err := s.setJobTriggersState(ctx, tx, job.Key, domain.StateError); err != nil {
			return err
		}

	case domain.ReExecuteJob:
		if _, err := tx.Exec(ctx, `UPDATE triggers SET trigger_state=$1, next_fire_time=prev_fire_time WHERE trigger_name=$2 AND trigger_group=$3`,
			string(domain.StateWaiting), in.Key.Name, in.Key.Group); err != nil {
			return fmt.Errorf("postgres: re-execute trigger: %w", err)
		}

	default: // NoOp
		// NextFireTime/State were already advanced in TriggersFired; only
		// EXECUTING needs to fall back to WAITING here. A trigger already
		// marked COMPLETE there (schedule exhausted) stays COMPLETE.
		if in.State == domain.StateExecuting {
			if err := s.setTriggerState(ctx, tx, in.Key, domain.StateWaiting); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) setTriggerState(ctx context.Context, q pgxPool, key domain.Key, state domain.State) error {
	_, err := q.Exec(ctx, `UPDATE triggers SET trigger_state=$1 WHERE trigger_name=$2 AND trigger_group=$3`, string(state), key.Name, key.Group)
	if err != nil {
		return fmt.Errorf("postgres: set trigger state: %w", err)
	}
	return nil
}

func (s *Store) setJobTriggersState(ctx context.Context, q pgxPool, jobKey domain.Key, state domain.State) error {
	_, err := q.Exec(ctx, `UPDATE triggers SET trigger_state=$1 WHERE job_name=$2 AND job_group=$3`, string(state), jobKey.Name, jobKey.Group)
	if err != nil {
		return fmt.Errorf("postgres: set job triggers state: %w", err)
	}
	return nil
}
