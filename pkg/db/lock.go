package db

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/pkg/errors"
)

// unlockTimeout bounds the unlock round trip performed by the release
// function, which runs during cleanup and has no caller context.
const unlockTimeout = 5 * time.Second

// LockKey derives a stable advisory lock key from a name using FNV-1a,
// masked to the non-negative int64 range. Identical names always produce the
// same key, so every process locking the same ledger contends on the same
// lock.
func LockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))

	return int64(h.Sum64() & 0x7FFFFFFFFFFFFFFF)
}

// AcquireLock blocks until the session-level advisory lock for key is held
// and returns a release function. Advisory locks are bound to a server
// session, so the lock pins one pooled connection until released; lock and
// unlock are guaranteed to run on that same connection.
//
// Example:
//
//	release, err := database.AcquireLock(ctx, db.LockKey(`"steward"."migrations"`))
//	if err != nil {
//		return err
//	}
//	defer release()
func (d *DB) AcquireLock(ctx context.Context, key int64) (func(), error) {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire connection for advisory lock")
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		conn.Release()
		return nil, errors.Wrapf(err, "failed to acquire advisory lock %d", key)
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		_, _ = conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", key)
		conn.Release()
	}

	return release, nil
}
