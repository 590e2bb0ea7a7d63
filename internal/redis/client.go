package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientOptions are the connection settings read from config. Zero values
// fall back to the defaults below.
type ClientOptions struct {
	Addr         string
	Username     string
	Password     string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (o ClientOptions) redisOptions() *redis.Options {
	opts := &redis.Options{
		Addr:         o.Addr,
		Username:     o.Username,
		Password:     o.Password,
		PoolSize:     o.PoolSize,
		MinIdleConns: o.MinIdleConns,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 2 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	return opts
}

// NewRedisClient connects and pings, so a bad address fails at startup
// rather than on the first cache read.
func NewRedisClient(ctx context.Context, o ClientOptions) (*redis.Client, error) {
	opts := o.redisOptions()
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	return rdb, nil
}
