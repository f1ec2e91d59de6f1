package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

func (s *Store) SchedulerStarted(ctx context.Context, instanceID string, checkinInterval time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduler_state (instance_id, last_checkin_time, checkin_interval)
		VALUES ($1, $2, $3)
		ON CONFLICT (instance_id) DO UPDATE SET last_checkin_time=EXCLUDED.last_checkin_time, checkin_interval=EXCLUDED.checkin_interval`,
		instanceID, time.Now(), checkinInterval.Nanoseconds())
	if err != nil {
		return fmt.Errorf("postgres: scheduler started: %w", err)
	}
	return nil
}

func (s *Store) SchedulerPaused(context.Context, string) error  { return nil }
func (s *Store) SchedulerResumed(context.Context, string) error { return nil }

func (s *Store) SchedulerShutdown(ctx context.Context, instanceID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM scheduler_state WHERE instance_id=$1`, instanceID)
	if err != nil {
		return fmt.Errorf("postgres: scheduler shutdown: %w", err)
	}
	return nil
}

func (s *Store) CheckIn(ctx context.Context, instanceID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE scheduler_state SET last_checkin_time=$1 WHERE instance_id=$2`, time.Now(), instanceID)
	if err != nil {
		return fmt.Errorf("postgres: check in: %w", err)
	}
	return nil
}

func (s *Store) FindFailedInstances(ctx context.Context, olderThan time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT instance_id FROM scheduler_state WHERE last_checkin_time < $1`, olderThan)
	if err != nil {
		return nil, fmt.Errorf("postgres: find failed instances: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RecoverFailedInstance reassigns a dead peer's in-flight FIRED_TRIGGERS
// rows: a trigger whose job requests recovery is rescheduled to fire once
// more at its originally-scheduled time, everything else is simply released
// back to WAITING.
func (s *Store) RecoverFailedInstance(ctx context.Context, instanceID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT trigger_name, trigger_group, job_name, job_group, scheduled_time, concurrent_exec_disallowed, requests_recovery
		FROM fired_triggers WHERE instance_id=$1`, instanceID)
	if err != nil {
		return fmt.Errorf("postgres: query fired triggers: %w", err)
	}

	type recoverable struct {
		trigger, job         domain.Key
		scheduledTime        time.Time
		concurrentDisallowed bool
		requestsRecovery     bool
	}
	var recs []recoverable
	for rows.Next() {
		var r recoverable
		if err := rows.Scan(&r.trigger.Name, &r.trigger.Group, &r.job.Name, &r.job.Group, &r.scheduledTime, &r.concurrentDisallowed, &r.requestsRecovery); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range recs {
		if r.concurrentDisallowed {
			if err := s.unblockSiblings(ctx, tx, r.job); err != nil {
				return err
			}
		}
		if r.requestsRecovery {
			_, err = tx.Exec(ctx, `UPDATE triggers SET trigger_state=$1, next_fire_time=$2 WHERE trigger_name=$3 AND trigger_group=$4`,
				string(domain.StateWaiting), r.scheduledTime, r.trigger.Name, r.trigger.Group)
		} else {
			_, err = tx.Exec(ctx, `
				UPDATE triggers SET trigger_state=$1 WHERE trigger_name=$2 AND trigger_group=$3 AND trigger_state IN ($4,$5)`,
				string(domain.StateWaiting), r.trigger.Name, r.trigger.Group, string(domain.StateExecuting), string(domain.StateAcquired))
		}
		if err != nil {
			return fmt.Errorf("postgres: recover trigger %s: %w", r.trigger, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM fired_triggers WHERE instance_id=$1`, instanceID); err != nil {
		return fmt.Errorf("postgres: clear fired triggers: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM scheduler_state WHERE instance_id=$1`, instanceID); err != nil {
		return fmt.Errorf("postgres: clear scheduler state: %w", err)
	}

	return tx.Commit(ctx)
}
