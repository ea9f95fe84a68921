// Package rdb provides support to access a Redis server.
package rdb

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config is the required properties to use redis.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Open creates a client for the configured server. No connection is made
// until the first command.
func Open(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// StatusCheck returns nil if it can successfully talk to redis. It
// returns a non-nil error otherwise.
func StatusCheck(ctx context.Context, client *redis.Client) error {
	var pingError error
	for attempts := 1; ; attempts++ {
		pingError = client.Ping(ctx).Err()
		if pingError == nil {
			return nil
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
