package redisclient

import (
	"context"
	"testing"
	"time"
)

func TestClientOptions_Defaults(t *testing.T) {
	opts := ClientOptions{Addr: "cache:6379"}.redisOptions()

	if opts.PoolSize != 10 {
		t.Errorf("expected pool size 10, got %d", opts.PoolSize)
	}
	if opts.DialTimeout != 5*time.Second || opts.ReadTimeout != 2*time.Second || opts.WriteTimeout != 2*time.Second {
		t.Errorf("unexpected timeouts %s/%s/%s", opts.DialTimeout, opts.ReadTimeout, opts.WriteTimeout)
	}
}

func TestClientOptions_Overrides(t *testing.T) {
	opts := ClientOptions{
		Addr:         "cache:6379",
		Username:     "app",
		Password:     "pw",
		PoolSize:     32,
		MinIdleConns: 4,
		DialTimeout:  time.Second,
		ReadTimeout:  300 * time.Millisecond,
		WriteTimeout: 400 * time.Millisecond,
	}.redisOptions()

	if opts.Addr != "cache:6379" || opts.Username != "app" || opts.Password != "pw" {
		t.Errorf("unexpected credentials %+v", opts)
	}
	if opts.PoolSize != 32 || opts.MinIdleConns != 4 {
		t.Errorf("expected pool 32/4, got %d/%d", opts.PoolSize, opts.MinIdleConns)
	}
	if opts.ReadTimeout != 300*time.Millisecond || opts.WriteTimeout != 400*time.Millisecond {
		t.Errorf("unexpected io timeouts %s/%s", opts.ReadTimeout, opts.WriteTimeout)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := NewRedisClient(context.Background(), ClientOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = client.Close()

	mr.Close()
	if _, err := NewRedisClient(context.Background(), ClientOptions{Addr: mr.Addr(), DialTimeout: time.Second}); err == nil {
		t.Fatal("expected ping failure once redis is gone")
	}
}
