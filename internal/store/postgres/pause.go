package postgres

import (
	"context"
	"fmt"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/repository"
)

func (s *Store) PauseTrigger(ctx context.Context, key domain.Key) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE triggers SET trigger_state=CASE trigger_state WHEN $1 THEN $2 ELSE $3 END
		WHERE trigger_name=$4 AND trigger_group=$5`,
		string(domain.StateBlocked), string(domain.StatePausedBlocked), string(domain.StatePaused),
		key.Name, key.Group)
	if err != nil {
		return fmt.Errorf("postgres: pause trigger: %w", err)
	}
	return nil
}

func (s *Store) PauseTriggers(ctx context.Context, m repository.Matcher) ([]string, error) {
	groups, err := s.matchedTriggerGroups(ctx, m)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if _, err := s.pool.Exec(ctx, `
			UPDATE triggers SET trigger_state=CASE trigger_state WHEN $1 THEN $2 ELSE $3 END
			WHERE trigger_group=$4`,
			string(domain.StateBlocked), string(domain.StatePausedBlocked), string(domain.StatePaused), g); err != nil {
			return nil, fmt.Errorf("postgres: pause trigger group %s: %w", g, err)
		}
		if _, err := s.pool.Exec(ctx, `INSERT INTO paused_trigger_grps (trigger_group) VALUES ($1) ON CONFLICT DO NOTHING`, g); err != nil {
			return nil, fmt.Errorf("postgres: record paused trigger group %s: %w", g, err)
		}
	}
	return groups, nil
}

func (s *Store) ResumeTrigger(ctx context.Context, key domain.Key) error {
	var group string
	if err := s.pool.QueryRow(ctx, `SELECT trigger_group FROM triggers WHERE trigger_name=$1 AND trigger_group=$2`, key.Name, key.Group).Scan(&group); err != nil {
		return nil
	}
	paused, err := s.groupPaused(ctx, group)
	if err != nil {
		return err
	}
	if paused {
		return nil
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE triggers SET trigger_state=CASE trigger_state WHEN $1 THEN $2 ELSE $3 END
		WHERE trigger_name=$4 AND trigger_group=$5 AND trigger_state IN ($1,$3)`,
		string(domain.StatePausedBlocked), string(domain.StateBlocked), string(domain.StateWaiting),
		key.Name, key.Group)
	if err != nil {
		return fmt.Errorf("postgres: resume trigger: %w", err)
	}
	return nil
}

func (s *Store) ResumeTriggers(ctx context.Context, m repository.Matcher) ([]string, error) {
	groups, err := s.matchedTriggerGroups(ctx, m)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if _, err := s.pool.Exec(ctx, `DELETE FROM paused_trigger_grps WHERE trigger_group=$1`, g); err != nil {
			return nil, fmt.Errorf("postgres: clear paused trigger group %s: %w", g, err)
		}
		if _, err := s.pool.Exec(ctx, `
			UPDATE triggers SET trigger_state=CASE trigger_state WHEN $1 THEN $2 ELSE $3 END
			WHERE trigger_group=$4 AND trigger_state IN ($1,$3)`,
			string(domain.StatePausedBlocked), string(domain.StateBlocked), string(domain.StateWaiting), g); err != nil {
			return nil, fmt.Errorf("postgres: resume trigger group %s: %w", g, err)
		}
	}
	return groups, nil
}

func (s *Store) PauseJob(ctx context.Context, key domain.Key) error {
	rows, err := s.pool.Query(ctx, `SELECT trigger_name, trigger_group FROM triggers WHERE job_name=$1 AND job_group=$2`, key.Name, key.Group)
	if err != nil {
		return fmt.Errorf("postgres: pause job: %w", err)
	}
	var keys []domain.Key
	for rows.Next() {
		var k domain.Key
		if err := rows.Scan(&k.Name, &k.Group); err != nil {
			rows.Close()
			return err
		}
		keys = append(keys, k)
	}
	rows.Close()
	for _, k := range keys {
		if err := s.PauseTrigger(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PauseJobs(ctx context.Context, m repository.Matcher) ([]string, error) {
	groups, err := s.matchedJobGroups(ctx, m)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		rows, err := s.pool.Query(ctx, `SELECT job_name FROM job_details WHERE job_group=$1`, g)
		if err != nil {
			return nil, fmt.Errorf("postgres: pause job group %s: %w", g, err)
		}
		var names []string
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				rows.Close()
				return nil, err
			}
			names = append(names, n)
		}
		rows.Close()
		for _, n := range names {
			if err := s.PauseJob(ctx, domain.Key{Name: n, Group: g}); err != nil {
				return nil, err
			}
		}
		if _, err := s.pool.Exec(ctx, `INSERT INTO paused_job_grps (job_group) VALUES ($1) ON CONFLICT DO NOTHING`, g); err != nil {
			return nil, fmt.Errorf("postgres: record paused job group %s: %w", g, err)
		}
	}
	return groups, nil
}

func (s *Store) ResumeJob(ctx context.Context, key domain.Key) error {
	rows, err := s.pool.Query(ctx, `SELECT trigger_name, trigger_group FROM triggers WHERE job_name=$1 AND job_group=$2`, key.Name, key.Group)
	if err != nil {
		return fmt.Errorf("postgres: resume job: %w", err)
	}
	var keys []domain.Key
	for rows.Next() {
		var k domain.Key
		if err := rows.Scan(&k.Name, &k.Group); err != nil {
			rows.Close()
			return err
		}
		keys = append(keys, k)
	}
	rows.Close()
	for _, k := range keys {
		if err := s.ResumeTrigger(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ResumeJobs(ctx context.Context, m repository.Matcher) ([]string, error) {
	groups, err := s.matchedJobGroups(ctx, m)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if _, err := s.pool.Exec(ctx, `DELETE FROM paused_job_grps WHERE job_group=$1`, g); err != nil {
			return nil, fmt.Errorf("postgres: clear paused job group %s: %w", g, err)
		}
		rows, err := s.pool.Query(ctx, `SELECT job_name FROM job_details WHERE job_group=$1`, g)
		if err != nil {
			return nil, fmt.Errorf("postgres: resume job group %s: %w", g, err)
		}
		var names []string
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				rows.Close()
				return nil, err
			}
			names = append(names, n)
		}
		rows.Close()
		for _, n := range names {
			if err := s.ResumeJob(ctx, domain.Key{Name: n, Group: g}); err != nil {
				return nil, err
			}
		}
	}
	return groups, nil
}

func (s *Store) PauseAll(ctx context.Context) error {
	_, err := s.PauseTriggers(ctx, nil)
	return err
}

func (s *Store) ResumeAll(ctx context.Context) error {
	_, err := s.ResumeTriggers(ctx, nil)
	return err
}

func (s *Store) GetPausedTriggerGroups(ctx context.Context) ([]string, error) {
	return scanGroupNames(ctx, s.pool, `SELECT trigger_group FROM paused_trigger_grps ORDER BY trigger_group`)
}

func (s *Store) groupPaused(ctx context.Context, group string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM paused_trigger_grps WHERE trigger_group=$1)`, group).Scan(&exists)
	return exists, err
}

func (s *Store) matchedTriggerGroups(ctx context.Context, m repository.Matcher) ([]string, error) {
	all, err := s.GetTriggerGroupNames(ctx)
	if err != nil {
		return nil, err
	}
	return filterGroups(all, m), nil
}

func (s *Store) matchedJobGroups(ctx context.Context, m repository.Matcher) ([]string, error) {
	all, err := s.GetJobGroupNames(ctx)
	if err != nil {
		return nil, err
	}
	return filterGroups(all, m), nil
}

func filterGroups(all []string, m repository.Matcher) []string {
	if m == nil {
		return all
	}
	var out []string
	for _, g := range all {
		if m.Matches(domain.Key{Group: g}) {
			out = append(out, g)
		}
	}
	return out
}
