package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gotransfer/internal/adapter/http"
	"github.com/iho/gotransfer/internal/adapter/http/handler"
	"github.com/iho/gotransfer/internal/adapter/idgen"
	"github.com/iho/gotransfer/internal/adapter/notification"
	"github.com/iho/gotransfer/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gotransfer/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gotransfer/internal/adapter/repository/redis"
	"github.com/iho/gotransfer/internal/infrastructure/config"
	"github.com/iho/gotransfer/internal/infrastructure/logger"
	"github.com/iho/gotransfer/internal/infrastructure/metrics"
	"github.com/iho/gotransfer/internal/infrastructure/notifier"
	"github.com/iho/gotransfer/internal/infrastructure/postgres"
	"github.com/iho/gotransfer/internal/infrastructure/redis"
	"github.com/iho/gotransfer/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Level:          cfg.LogLevel,
		Format:         cfg.LogFormat,
		File:           cfg.LogFile,
		FileMaxSizeMB:  cfg.LogFileMaxSizeMB,
		FileMaxBackups: cfg.LogFileMaxBackups,
		FileMaxAgeDays: cfg.LogFileMaxAgeDays,
	})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cfg, appLogger, registry)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to initialize service")
	}
	defer a.Close()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.HTTPPort))
	if err != nil {
		appLogger.Fatal().Err(err).Str("port", cfg.HTTPPort).Msg("failed to listen")
	}

	if err := a.Run(ctx, listener); err != nil {
		appLogger.Error().Err(err).Msg("service stopped with error")
		a.Close()
		os.Exit(1)
	}

	appLogger.Info().Msg("server stopped")
}

// app holds the wired service.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	store      *memory.AccountStore
	dispatcher *notifier.Dispatcher
	server     *http.Server
	closers    []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, registry *prometheus.Registry) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  memory.NewAccountStore(),
	}

	m := metrics.NewWithRegistry(registry)

	var (
		sinks            []notifier.Sink
		idempotencyStore usecase.IdempotencyStore
		checkers         []handler.HealthChecker
	)
	sinks = append(sinks, notification.NewLogSink(logger))

	// Redis is optional
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.onClose(func() { _ = redisClient.Close() })
		logger.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		sinks = append(sinks, notification.NewRedisSink(redisClient, cfg.NotifyRedisChannel))
		checkers = append(checkers, redis.NewHealthChecker(redisClient))
	}

	// Seeding from Postgres is optional
	if cfg.DatabaseURL != "" {
		if err := a.seed(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.dispatcher = notifier.NewDispatcher(notifier.Config{
		Sinks:           sinks,
		Logger:          logger.With().Str("component", "notifier").Logger(),
		Recorder:        m,
		Workers:         cfg.NotifyWorkers,
		QueueSize:       cfg.NotifyQueueSize,
		MaxRetries:      cfg.NotifyMaxRetries,
		RetryInterval:   cfg.NotifyRetryInterval,
		DrainTimeout:    cfg.HTTPShutdownTimeout,
		BreakerFailures: cfg.NotifyBreakerFailures,
		BreakerTimeout:  cfg.NotifyBreakerTimeout,
	})

	// Initialize use cases
	transferUC := usecase.NewTransferUseCase(a.store, a.dispatcher, idgen.NewULIDGenerator(),
		usecase.WithLockTimeout(cfg.TransferLockTimeout),
		usecase.WithMetrics(m),
		usecase.WithLogger(logger.With().Str("component", "transfer").Logger()),
	)
	accountUC := usecase.NewAccountUseCase(a.store, cfg.TransferLockTimeout, usecase.WithAccountMetrics(m))

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC),
		TransferHandler:  handler.NewTransferHandler(transferUC),
		HealthHandler:    handler.NewHealthHandler(checkers...),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		Gatherer:         registry,
		Logger:           logger.With().Str("component", "http").Logger(),
	})

	a.server = &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return a, nil
}

// seed runs migrations when configured and imports the accounts table.
func (a *app) seed(ctx context.Context) error {
	if a.cfg.MigrationsPath != "" {
		if err := postgres.RunMigrations(a.cfg.DatabaseURL, a.cfg.MigrationsPath, a.logger); err != nil {
			return err
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: a.cfg.DatabaseURL,
		MaxConns:    a.cfg.DatabaseMaxConns,
		MinConns:    a.cfg.DatabaseMinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	// The pool is only needed for the import.
	defer pool.Close()

	n, err := postgresRepo.NewAccountLoader(pool, a.logger).Load(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to seed accounts: %w", err)
	}

	a.logger.Info().Int("accounts", n).Msg("accounts seeded from postgres")
	return nil
}

// Run serves HTTP on listener and runs the notification dispatcher until ctx
// is cancelled, then shuts both down.
func (a *app) Run(ctx context.Context, listener net.Listener) error {
	// Workers outlive the HTTP server so late notifications still get queued.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", listener.Addr().String()).Msg("starting server")
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
		defer cancel()

		err := a.server.Shutdown(shutdownCtx)
		stopDispatch()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.dispatcher.Start(dispatchCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	return g.Wait()
}

// Close releases external connections. It is safe to call more than once.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}
