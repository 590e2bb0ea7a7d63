package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/logging"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/schedule"
)

const lockName = "sweeper:stale-pending"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("prod", "sweeper")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, "sweeper")
	logger.Info().
		Dur("interval", cfg.SweepInterval).
		Dur("grace", cfg.StalePendingGrace).
		Msg("sweeper starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		MaxConnLifetime: cfg.PGConnLifetime,
		MaxConnIdleTime: cfg.PGConnIdleTime,
	})
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.ClientOptions{
		Addr:         cfg.RedisAddr,
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdle,
		DialTimeout:  cfg.RedisTimeout,
		ReadTimeout:  cfg.RedisIOTimeout,
		WriteTimeout: cfg.RedisIOTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()

	var availCache appointment.AvailabilityCache
	if cfg.AvailabilityTTL > 0 {
		availCache = redisclient.NewAvailabilityCache(rdb, cfg.AvailabilityTTL, logger)
	}

	svc := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		schedule.NewPgRepository(pgPool),
		availCache,
		appointment.Options{Location: cfg.Location, CancellationWindow: cfg.CancellationWindow},
		logger,
	)
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)

	// Run once at startup
	runOnce(rootCtx, svc, locker, cfg.StalePendingGrace, logger)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, locker, cfg.StalePendingGrace, logger)
		}
	}
}

// runOnce sweeps under a shared lock so only one replica works each tick.
func runOnce(ctx context.Context, svc *appointment.Service, locker redisclient.Locker, grace time.Duration, logger zerolog.Logger) {
	start := time.Now()

	err := locker.WithLock(ctx, lockName, func(lockCtx context.Context) error {
		n, err := svc.CancelStalePending(lockCtx, grace)
		if err != nil {
			return err
		}
		logger.Info().Int("cancelled", n).Dur("took", time.Since(start)).Msg("sweep complete")
		return nil
	})

	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		logger.Debug().Msg("another sweeper holds the lock, skipping")
	case err != nil:
		logger.Error().Err(err).Msg("sweep failed")
	}
}
