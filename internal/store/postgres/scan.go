package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quartzgo/quartz/internal/domain"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullableTime converts a zero time.Time (meaning "no value") into a SQL
// NULL, the inverse of the sql.NullTime handling in scanTrigger.
func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func scanJob(row rowScanner) (*domain.JobDetail, error) {
	var (
		j        domain.JobDetail
		dataMap  []byte
		capsJSON []byte
	)
	err := row.Scan(&j.Key.Name, &j.Key.Group, &j.Description, &j.JobClass, &j.Durable, &j.RequestsRecovery, &dataMap, &capsJSON)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(dataMap, &j.JobDataMap); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal job data map: %w", err)
	}
	if err := json.Unmarshal(capsJSON, &j.Capabilities); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal job capabilities: %w", err)
	}
	return &j, nil
}

const triggerSelectColumns = `
	SELECT trigger_name, trigger_group, job_name, job_group, description,
	       next_fire_time, prev_fire_time, priority, trigger_state,
	       start_time, end_time, calendar_name, misfire_instr,
	       job_data_map, schedule, fire_instance_id`

func scanTrigger(row rowScanner) (*domain.Trigger, error) {
	var (
		tr        domain.Trigger
		state     string
		misfire   int16
		dataMap   []byte
		schedJSON []byte
		nextFire  sql.NullTime
		prevFire  sql.NullTime
		endTime   sql.NullTime
	)
	err := row.Scan(
		&tr.Key.Name, &tr.Key.Group, &tr.JobKey.Name, &tr.JobKey.Group, &tr.Description,
		&nextFire, &prevFire, &tr.Priority, &state,
		&tr.StartTime, &endTime, &tr.CalendarName, &misfire,
		&dataMap, &schedJSON, &tr.FireInstanceID,
	)
	if err != nil {
		return nil, err
	}
	if nextFire.Valid {
		tr.NextFireTime = nextFire.Time
	}
	if prevFire.Valid {
		tr.PreviousFireTime = prevFire.Time
	}
	if endTime.Valid {
		tr.EndTime = endTime.Time
	}
	tr.State = domain.State(state)
	tr.Misfire = domain.MisfirePolicy(misfire)
	if err := json.Unmarshal(dataMap, &tr.JobDataMap); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal trigger data map: %w", err)
	}
	if err := json.Unmarshal(schedJSON, &tr.Schedule); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal schedule: %w", err)
	}
	return &tr, nil
}

func scanTriggers(rows pgx.Rows) ([]*domain.Trigger, error) {
	var out []*domain.Trigger
	for rows.Next() {
		tr, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}
