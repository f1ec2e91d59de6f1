package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Semaphore is a repository.Semaphore backed by the LOCKS table. Unlike a
// row lock held inside one transaction for its duration, ownership here is
// recorded in the row's locked_by column and lasts until Release, so
// Acquire retries the claiming UPDATE every 50ms instead of blocking inside
// a single statement. There is no retry limit: Acquire keeps polling until
// it gets the lock or ctx is done.
type Semaphore struct {
	pool *pgxpool.Pool
	poll time.Duration
}

func NewSemaphore(pool *pgxpool.Pool) *Semaphore {
	return &Semaphore{pool: pool, poll: 50 * time.Millisecond}
}

func (s *Semaphore) Acquire(ctx context.Context, lockName, owner string) error {
	for {
		ok, err := s.tryAcquire(ctx, lockName, owner)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.poll):
		}
	}
}

func (s *Semaphore) tryAcquire(ctx context.Context, lockName, owner string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE locks SET locked_by=$2 WHERE lock_name=$1 AND (locked_by IS NULL OR locked_by=$2)`,
		lockName, owner)
	if err != nil {
		return false, fmt.Errorf("postgres: acquire lock %s: %w", lockName, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Semaphore) Release(ctx context.Context, lockName, owner string) error {
	_, err := s.pool.Exec(ctx, `UPDATE locks SET locked_by=NULL WHERE lock_name=$1 AND locked_by=$2`, lockName, owner)
	if err != nil {
		return fmt.Errorf("postgres: release lock %s: %w", lockName, err)
	}
	return nil
}
