package domain

import "time"

// FiredState is the two states a FiredTriggerRecord passes through between
// acquire and completion.
type FiredState string

const (
	FiredAcquired  FiredState = "ACQUIRED"
	FiredExecuting FiredState = "EXECUTING"
)

// FiredTriggerRecord is persisted evidence that a trigger's fire has been
// claimed, so a peer can recover it if the claiming instance dies before
// completing the fire.
type FiredTriggerRecord struct {
	FireInstanceID                string
	TriggerKey                    Key
	JobKey                        Key
	InstanceID                    string
	FiredTime                     time.Time
	ScheduledTime                 time.Time
	State                         FiredState
	ConcurrentExecutionDisallowed bool
	RequestsRecovery              bool
	Priority                      int
}

// SchedulerInstance is one cluster peer's heartbeat row.
type SchedulerInstance struct {
	InstanceID       string
	LastCheckinTime  time.Time
	CheckinInterval  time.Duration
}
