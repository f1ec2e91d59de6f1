package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/repository"
	"github.com/quartzgo/quartz/internal/trigger"
)

// pgxPool is satisfied by both *pgxpool.Pool and pgx.Tx, so the CRUD
// helpers below work unchanged whether called directly or from inside a
// transaction.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a clustered repository.Store backed by Postgres.
type Store struct {
	pool       *pgxpool.Pool
	lock       *Semaphore
	instanceID string
}

var _ repository.Store = (*Store)(nil)

// New returns a Store bound to pool. instanceID identifies this scheduler
// node in the cluster, used as the lock owner and as the prefix of the fire
// instance IDs it assigns; FIRED_TRIGGERS rows are tagged with the instanceID
// passed to TriggersFired.
func New(pool *pgxpool.Pool, instanceID string) *Store {
	return &Store{pool: pool, lock: NewSemaphore(pool), instanceID: instanceID}
}

func (s *Store) StoreJob(ctx context.Context, job *domain.JobDetail, replaceExisting bool) error {
	dataMap, err := json.Marshal(job.JobDataMap)
	if err != nil {
		return fmt.Errorf("postgres: marshal job data map: %w", err)
	}
	caps, err := json.Marshal(job.Capabilities)
	if err != nil {
		return fmt.Errorf("postgres: marshal job capabilities: %w", err)
	}

	query := `
		INSERT INTO job_details (job_name, job_group, description, job_class, durable, requests_recovery, job_data_map, capabilities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if replaceExisting {
		query += `
		ON CONFLICT (job_name, job_group) DO UPDATE SET
			description = EXCLUDED.description,
			job_class = EXCLUDED.job_class,
			durable = EXCLUDED.durable,
			requests_recovery = EXCLUDED.requests_recovery,
			job_data_map = EXCLUDED.job_data_map,
			capabilities = EXCLUDED.capabilities`
	}

	_, err = s.pool.Exec(ctx, query,
		job.Key.Name, job.Key.Group, job.Description, job.JobClass,
		job.Durable, job.RequestsRecovery, dataMap, caps)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrJobAlreadyExists
		}
		return fmt.Errorf("postgres: store job: %w", err)
	}
	return nil
}

func (s *Store) StoreTrigger(ctx context.Context, tr *domain.Trigger, replaceExisting bool) error {
	return s.storeTrigger(ctx, s.pool, tr, replaceExisting)
}

func (s *Store) storeTrigger(ctx context.Context, q pgxPool, tr *domain.Trigger, replaceExisting bool) error {
	if err := trigger.ValidateSchedule(tr); err != nil {
		return err
	}

	dataMap, err := json.Marshal(tr.JobDataMap)
	if err != nil {
		return fmt.Errorf("postgres: marshal trigger data map: %w", err)
	}
	sched, err := json.Marshal(tr.Schedule)
	if err != nil {
		return fmt.Errorf("postgres: marshal schedule: %w", err)
	}

	state := tr.State
	if state == "" {
		state = domain.StateWaiting
	}

	query := `
		INSERT INTO triggers (
			trigger_name, trigger_group, job_name, job_group, description,
			next_fire_time, prev_fire_time, priority, trigger_state,
			start_time, end_time, calendar_name, misfire_instr,
			job_data_map, schedule, fire_instance_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	if replaceExisting {
		query += `
		ON CONFLICT (trigger_name, trigger_group) DO UPDATE SET
			job_name = EXCLUDED.job_name, job_group = EXCLUDED.job_group,
			description = EXCLUDED.description,
			next_fire_time = EXCLUDED.next_fire_time, prev_fire_time = EXCLUDED.prev_fire_time,
			priority = EXCLUDED.priority, trigger_state = EXCLUDED.trigger_state,
			start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
			calendar_name = EXCLUDED.calendar_name, misfire_instr = EXCLUDED.misfire_instr,
			job_data_map = EXCLUDED.job_data_map, schedule = EXCLUDED.schedule,
			fire_instance_id = EXCLUDED.fire_instance_id`
	}

	_, err = q.Exec(ctx, query,
		tr.Key.Name, tr.Key.Group, tr.JobKey.Name, tr.JobKey.Group, tr.Description,
		nullTime(tr.NextFireTime), nullTime(tr.PreviousFireTime), tr.Priority, string(state),
		tr.StartTime, nullTime(tr.EndTime), tr.CalendarName, int16(tr.Misfire),
		dataMap, sched, tr.FireInstanceID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrTriggerAlreadyExists
		}
		return fmt.Errorf("postgres: store trigger: %w", err)
	}
	return nil
}

func (s *Store) StoreJobAndTrigger(ctx context.Context, job *domain.JobDetail, tr *domain.Trigger) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	dataMap, err := json.Marshal(job.JobDataMap)
	if err != nil {
		return fmt.Errorf("postgres: marshal job data map: %w", err)
	}
	caps, err := json.Marshal(job.Capabilities)
	if err != nil {
		return fmt.Errorf("postgres: marshal job capabilities: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO job_details (job_name, job_group, description, job_class, durable, requests_recovery, job_data_map, capabilities)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (job_name, job_group) DO UPDATE SET
			description = EXCLUDED.description, job_class = EXCLUDED.job_class,
			durable = EXCLUDED.durable, requests_recovery = EXCLUDED.requests_recovery,
			job_data_map = EXCLUDED.job_data_map, capabilities = EXCLUDED.capabilities`,
		job.Key.Name, job.Key.Group, job.Description, job.JobClass, job.Durable, job.RequestsRecovery, dataMap, caps)
	if err != nil {
		return fmt.Errorf("postgres: store job: %w", err)
	}

	if err := s.storeTrigger(ctx, tx, tr, true); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RemoveJob(ctx context.Context, key domain.Key) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM job_details WHERE job_name=$1 AND job_group=$2`, key.Name, key.Group)
	if err != nil {
		return false, fmt.Errorf("postgres: remove job: %w", err)
	}
	_, _ = s.pool.Exec(ctx, `DELETE FROM triggers WHERE job_name=$1 AND job_group=$2`, key.Name, key.Group)
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RemoveTrigger(ctx context.Context, key domain.Key) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var jobName, jobGroup string
	err = tx.QueryRow(ctx, `SELECT job_name, job_group FROM triggers WHERE trigger_name=$1 AND trigger_group=$2`,
		key.Name, key.Group).Scan(&jobName, &jobGroup)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres: lookup trigger: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM triggers WHERE trigger_name=$1 AND trigger_group=$2`, key.Name, key.Group); err != nil {
		return false, fmt.Errorf("postgres: remove trigger: %w", err)
	}

	var durable bool
	var remaining int
	err = tx.QueryRow(ctx, `SELECT durable FROM job_details WHERE job_name=$1 AND job_group=$2`, jobName, jobGroup).Scan(&durable)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("postgres: lookup job: %w", err)
	}
	if !durable {
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM triggers WHERE job_name=$1 AND job_group=$2`, jobName, jobGroup).Scan(&remaining); err != nil {
			return false, fmt.Errorf("postgres: count siblings: %w", err)
		}
		if remaining == 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM job_details WHERE job_name=$1 AND job_group=$2`, jobName, jobGroup); err != nil {
				return false, fmt.Errorf("postgres: remove orphaned job: %w", err)
			}
		}
	}

	return true, tx.Commit(ctx)
}

func (s *Store) ReplaceTrigger(ctx context.Context, key domain.Key, newTrigger *domain.Trigger) (bool, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM triggers WHERE trigger_name=$1 AND trigger_group=$2`, key.Name, key.Group); err != nil {
		return false, fmt.Errorf("postgres: replace trigger: %w", err)
	}
	if err := s.storeTrigger(ctx, s.pool, newTrigger, true); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) RetrieveJob(ctx context.Context, key domain.Key) (*domain.JobDetail, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT job_name, job_group, description, job_class, durable, requests_recovery, job_data_map, capabilities
		FROM job_details WHERE job_name=$1 AND job_group=$2`, key.Name, key.Group)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return job, err
}

func (s *Store) RetrieveTrigger(ctx context.Context, key domain.Key) (*domain.Trigger, error) {
	row := s.pool.QueryRow(ctx, triggerSelectColumns+` FROM triggers WHERE trigger_name=$1 AND trigger_group=$2`, key.Name, key.Group)
	tr, err := scanTrigger(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTriggerNotFound
	}
	return tr, err
}

func (s *Store) CheckExistsJob(ctx context.Context, key domain.Key) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM job_details WHERE job_name=$1 AND job_group=$2)`, key.Name, key.Group).Scan(&exists)
	return exists, err
}

func (s *Store) CheckExistsTrigger(ctx context.Context, key domain.Key) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM triggers WHERE trigger_name=$1 AND trigger_group=$2)`, key.Name, key.Group).Scan(&exists)
	return exists, err
}

func (s *Store) GetTriggersForJob(ctx context.Context, jobKey domain.Key) ([]*domain.Trigger, error) {
	rows, err := s.pool.Query(ctx, triggerSelectColumns+` FROM triggers WHERE job_name=$1 AND job_group=$2 ORDER BY trigger_name`, jobKey.Name, jobKey.Group)
	if err != nil {
		return nil, fmt.Errorf("postgres: get triggers for job: %w", err)
	}
	defer rows.Close()
	return scanTriggers(rows)
}

func (s *Store) GetJobKeys(ctx context.Context, m repository.Matcher) ([]domain.Key, error) {
	rows, err := s.pool.Query(ctx, `SELECT job_name, job_group FROM job_details ORDER BY job_group, job_name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: get job keys: %w", err)
	}
	defer rows.Close()
	return scanKeysFiltered(rows, m)
}

func (s *Store) GetTriggerKeys(ctx context.Context, m repository.Matcher) ([]domain.Key, error) {
	rows, err := s.pool.Query(ctx, `SELECT trigger_name, trigger_group FROM triggers ORDER BY trigger_group, trigger_name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: get trigger keys: %w", err)
	}
	defer rows.Close()
	return scanKeysFiltered(rows, m)
}

func (s *Store) GetJobGroupNames(ctx context.Context) ([]string, error) {
	return scanGroupNames(ctx, s.pool, `SELECT DISTINCT job_group FROM job_details ORDER BY job_group`)
}

func (s *Store) GetTriggerGroupNames(ctx context.Context) ([]string, error) {
	return scanGroupNames(ctx, s.pool, `SELECT DISTINCT trigger_group FROM triggers ORDER BY trigger_group`)
}

func scanGroupNames(ctx context.Context, q pgxPool, query string) ([]string, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: get group names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanKeysFiltered(rows pgx.Rows, m repository.Matcher) ([]domain.Key, error) {
	var out []domain.Key
	for rows.Next() {
		var k domain.Key
		if err := rows.Scan(&k.Name, &k.Group); err != nil {
			return nil, err
		}
		if m == nil || m.Matches(k) {
			out = append(out, k)
		}
	}
	return out, rows.Err()
}

func nullTime(t interface{ IsZero() bool }) any {
	if t.IsZero() {
		return nil
	}
	return t
}
