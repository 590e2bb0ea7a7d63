package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/api"
	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/logging"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/schedule"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("prod", "api-server")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, "api-server")
	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("api-server stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("timezone", cfg.Location.String()).
		Msg("api-server starting up")

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
		return err
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

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
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	scheduleRepo := schedule.NewPgRepository(pgPool)
	appointmentRepo := appointment.NewPgRepository(pgPool)

	// nil interfaces when caching is disabled
	var weekHook schedule.WeekChangeHook
	var availCache appointment.AvailabilityCache
	if cfg.AvailabilityTTL > 0 {
		cache := redisclient.NewAvailabilityCache(rdb, cfg.AvailabilityTTL, logger)
		weekHook = cache
		availCache = cache
	}

	policy := schedule.Policy{
		MinShiftsRequired: cfg.MinShiftsRequired,
		MinEveningShifts:  cfg.MinEveningShifts,
	}
	scheduleSvc := schedule.NewService(scheduleRepo, policy, weekHook, logger.With().Str("service", "schedule").Logger())
	appointmentSvc := appointment.NewService(appointmentRepo, scheduleRepo, availCache, appointment.Options{
		Location:           cfg.Location,
		CancellationWindow: cfg.CancellationWindow,
	}, logger.With().Str("service", "appointment").Logger())

	router := api.NewRouter(api.RouterConfig{
		Schedules:    scheduleSvc,
		Appointments: appointmentSvc,
		Tokens:       auth.NewSigner(cfg.JWTSecret),
		Checks: []api.Check{
			{Name: "postgres", Critical: true, Ping: pgPool.Ping},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		Logger:  logger,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-rootCtx.Done():
	}

	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
