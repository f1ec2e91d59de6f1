package postgres

import "context"

// schema mirrors the classic Quartz JDBC job store's table set, collapsed
// to fit a JSONB-friendly Go port: per-schedule-kind delegate tables become
// one JSONB "schedule" column on TRIGGERS rather than
// SIMPLE_TRIGGERS/CRON_TRIGGERS/... siblings, since Go's tagged union
// already carries that distinction in one struct.
const schema = `
CREATE TABLE IF NOT EXISTS job_details (
	job_name      TEXT NOT NULL,
	job_group     TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	job_class     TEXT NOT NULL,
	durable       BOOLEAN NOT NULL DEFAULT FALSE,
	requests_recovery BOOLEAN NOT NULL DEFAULT FALSE,
	job_data_map  JSONB NOT NULL DEFAULT '{}',
	capabilities  JSONB NOT NULL DEFAULT '{}',
	PRIMARY KEY (job_name, job_group)
);

CREATE TABLE IF NOT EXISTS triggers (
	trigger_name     TEXT NOT NULL,
	trigger_group    TEXT NOT NULL,
	job_name         TEXT NOT NULL,
	job_group        TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	next_fire_time   TIMESTAMPTZ,
	prev_fire_time   TIMESTAMPTZ,
	priority         INTEGER NOT NULL DEFAULT 5,
	trigger_state    TEXT NOT NULL,
	start_time       TIMESTAMPTZ NOT NULL,
	end_time         TIMESTAMPTZ,
	calendar_name    TEXT NOT NULL DEFAULT '',
	misfire_instr    SMALLINT NOT NULL DEFAULT 0,
	job_data_map     JSONB NOT NULL DEFAULT '{}',
	schedule         JSONB NOT NULL,
	fire_instance_id TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (trigger_name, trigger_group),
	FOREIGN KEY (job_name, job_group) REFERENCES job_details(job_name, job_group)
);
CREATE INDEX IF NOT EXISTS idx_triggers_next_fire ON triggers (trigger_state, next_fire_time);
CREATE INDEX IF NOT EXISTS idx_triggers_job ON triggers (job_name, job_group);

CREATE TABLE IF NOT EXISTS calendars (
	calendar_name TEXT PRIMARY KEY,
	base_name     TEXT NOT NULL DEFAULT '',
	kind          SMALLINT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	data          JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS paused_trigger_grps (
	trigger_group TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS paused_job_grps (
	job_group TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS fired_triggers (
	fire_instance_id TEXT PRIMARY KEY,
	trigger_name     TEXT NOT NULL,
	trigger_group    TEXT NOT NULL,
	job_name         TEXT NOT NULL,
	job_group        TEXT NOT NULL,
	instance_id      TEXT NOT NULL,
	fired_time       TIMESTAMPTZ NOT NULL,
	scheduled_time   TIMESTAMPTZ NOT NULL,
	state            TEXT NOT NULL,
	concurrent_exec_disallowed BOOLEAN NOT NULL DEFAULT FALSE,
	requests_recovery BOOLEAN NOT NULL DEFAULT FALSE,
	priority         INTEGER NOT NULL DEFAULT 5
);
CREATE INDEX IF NOT EXISTS idx_fired_triggers_instance ON fired_triggers (instance_id);

CREATE TABLE IF NOT EXISTS scheduler_state (
	instance_id      TEXT PRIMARY KEY,
	last_checkin_time TIMESTAMPTZ NOT NULL,
	checkin_interval  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS locks (
	lock_name TEXT PRIMARY KEY,
	locked_by TEXT
);
INSERT INTO locks (lock_name, locked_by) VALUES ('TRIGGER_ACCESS', NULL), ('STATE_ACCESS', NULL)
	ON CONFLICT (lock_name) DO NOTHING;
`

// Migrate applies the store's schema, idempotently. Callers typically run
// it once at process startup.
func Migrate(ctx context.Context, pool pgxPool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
