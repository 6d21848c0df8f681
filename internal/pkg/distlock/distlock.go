// Package distlock provides per-key distributed locks so only one engine
// process evaluates a given campaign at a time. Redis is the preferred
// backend; PostgreSQL advisory locks cover deployments without Redis.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a non-blocking, single-owner lock. An instance belongs to one
// goroutine; concurrent lockers each create their own instance.
type DistLock interface {
	// Acquire attempts the lock without blocking; true means held.
	Acquire(ctx context.Context) (bool, error)
	// Release frees the lock if this instance still owns it.
	Release(ctx context.Context) error
}

// NewLock picks the backend: Redis when a client is provided, otherwise a
// PostgreSQL advisory lock on the same database the engine already uses.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewPGAdvisoryLock(db, key)
}

// PGAdvisoryLock maps the key to a 64-bit advisory lock id. Advisory locks
// are session-scoped: if the process dies, the lock dies with its
// connection, which gives the same crash-release property as a Redis TTL.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
}

// NewPGAdvisoryLock derives the lock id from the key with FNV-1a.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

// Acquire uses pg_try_advisory_lock, which returns immediately.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired)
	return acquired, err
}

// Release unlocks via pg_advisory_unlock.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}
