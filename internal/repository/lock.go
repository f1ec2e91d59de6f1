package repository

import "context"

// Semaphore serializes access to a named resource across every scheduler
// instance sharing a clustered store (the LOCKS table in the Postgres
// implementation). A lock is reentrant per owner: the same owner token may
// acquire a lock it already holds without blocking on itself, mirroring
// the thread-local reentrancy the original implementation gets for free
// from holding the lock on the calling thread. Go has no thread identity
// to key that reentrancy on, so callers pass an explicit owner token
// instead (the Postgres store passes its scheduler instance ID).
type Semaphore interface {
	// Acquire blocks until lockName is held by owner, or ctx is done.
	Acquire(ctx context.Context, lockName, owner string) error

	// Release gives up lockName held by owner. Releasing a lock not held
	// by owner is a no-op.
	Release(ctx context.Context, lockName, owner string) error
}

// Well-known lock names used by the clustered store.
const (
	LockTriggerAccess = "TRIGGER_ACCESS"
	LockStateAccess   = "STATE_ACCESS"
)
