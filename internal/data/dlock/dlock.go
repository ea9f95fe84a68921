// Package dlock provides named locks shared by every instance talking to the
// same redis server.
package dlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is held elsewhere past the
// retry budget.
var ErrNotAcquired = errors.New("lock not acquired")

// Config controls how locks are taken.
type Config struct {
	Expiry time.Duration
	Tries  int
}

// Locker hands out redsync mutexes.
type Locker struct {
	rs  *redsync.Redsync
	cfg Config
}

func New(client *redis.Client, cfg Config) *Locker {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 8 * time.Second
	}
	if cfg.Tries <= 0 {
		cfg.Tries = 32
	}

	return &Locker{
		rs:  redsync.New(goredis.NewPool(client)),
		cfg: cfg,
	}
}

// Lock blocks until name is held or the tries run out. The returned
// function releases it.
func (l *Locker) Lock(ctx context.Context, name string) (func() error, error) {
	m := l.rs.NewMutex("dlock:"+name,
		redsync.WithExpiry(l.cfg.Expiry),
		redsync.WithTries(l.cfg.Tries),
	)

	if err := m.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, name)
		}
		return nil, fmt.Errorf("lock %s: %w", name, err)
	}

	unlock := func() error {
		// The caller's context may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		ok, err := m.UnlockContext(ctx)
		if err != nil {
			return fmt.Errorf("unlock %s: %w", name, err)
		}
		if !ok {
			return fmt.Errorf("unlock %s: lock expired", name)
		}
		return nil
	}

	return unlock, nil
}
