package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/fintrack/internal/adapter/http"
	"github.com/iho/fintrack/internal/adapter/http/handler"
	"github.com/iho/fintrack/internal/adapter/http/middleware"
	"github.com/iho/fintrack/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/fintrack/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fintrack/internal/adapter/repository/redis"
	"github.com/iho/fintrack/internal/infrastructure/auth"
	"github.com/iho/fintrack/internal/infrastructure/config"
	"github.com/iho/fintrack/internal/infrastructure/eventpublisher"
	"github.com/iho/fintrack/internal/infrastructure/logger"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
	"github.com/iho/fintrack/internal/infrastructure/postgres"
	"github.com/iho/fintrack/internal/infrastructure/redis"
	"github.com/iho/fintrack/internal/usecase"
)

// demoUserID owns the seeded ledger when SEED_DEMO_DATA is set.
const demoUserID = "demo"

const (
	evictionInterval    = time.Minute
	limiterCleanupEvery = 5 * time.Minute
	limiterMaxIdle      = 10 * time.Minute
	outboxRetention     = 7 * 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "fintrack",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// backend is the storage the session stores load from and persist to.
type backend struct {
	ledger     usecase.LedgerBackend
	repository usecase.LedgerRepository
	retrier    usecase.Retrier
	outbox     usecase.OutboxRepository
	checks     []handler.ReadinessCheck
	close      func()
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	m := metrics.New()
	idGen := postgresRepo.NewULIDGenerator()

	store, err := openBackend(ctx, cfg, idGen, log)
	if err != nil {
		return err
	}
	defer store.close()

	checks := store.checks

	var (
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisEnabled {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		checks = append(checks, redisCheck(redisClient))
	}

	if store.outbox != nil {
		publisher, closePublisher := newPublisher(cfg, log)
		defer closePublisher()

		worker := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Publisher:  publisher,
			Observer:   m,
			Logger:     log.With().Str("component", "outbox").Logger(),
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  outboxRetention,
		})
		go func() {
			if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	sessions := usecase.NewSessionManager(
		newStoreFactory(store, idGen, m, log),
		cfg.LedgerLoadTimeout,
		log.With().Str("component", "sessions").Logger(),
	)
	go sessions.RunEvictor(ctx, evictionInterval, cfg.SessionIdleTTL)

	reports := usecase.NewReportUseCase(cache, cfg.ReportCacheTTL, log)
	reconciliation := usecase.NewReconciliationUseCase(store.repository)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	go limiter.RunCleanup(ctx, limiterCleanupEvery, limiterMaxIdle)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SessionHandler:     handler.NewSessionHandler(sessions),
		AccountHandler:     handler.NewAccountHandler(sessions),
		TransactionHandler: handler.NewTransactionHandler(sessions),
		TransferHandler:    handler.NewTransferHandler(sessions),
		ReportHandler:      handler.NewReportHandler(sessions, reports),
		LedgerHandler:      handler.NewLedgerHandler(sessions, reconciliation),
		HealthHandler:      handler.NewHealthHandler(checks...),
		Authenticator:      authenticator(cfg, m),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        limiter,
		Metrics:            m,
		MetricsHandler:     promhttp.Handler(),
		Logger:             log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Str("storage", cfg.StorageDriver).
			Bool("auth", cfg.AuthEnabled).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Int("sessions", sessions.Len()).Msg("server stopped")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, idGen usecase.IDGenerator, log zerolog.Logger) (*backend, error) {
	if cfg.StorageDriver == config.StoragePostgres {
		return openPostgres(ctx, cfg, log)
	}

	ledgers := memory.NewLedgerBackend()
	if cfg.SeedDemoData {
		ledgers.Seed(memory.DemoLedger(demoUserID, idGen, time.Now().UTC()))
		log.Info().Str("user_id", demoUserID).Msg("seeded demo ledger")
	}

	return &backend{
		ledger:     ledgers,
		repository: ledgers,
		close:      func() {},
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	outbox := postgresRepo.NewOutboxRepository(pool)
	repo := postgresRepo.NewLedgerRepository(pool, outbox)

	return &backend{
		ledger:     repo,
		repository: repo,
		retrier:    postgresRepo.NewRetrier(log),
		outbox:     outbox,
		checks: []handler.ReadinessCheck{{
			Name: "postgres",
			Ping: pool.Ping,
		}},
		close: pool.Close,
	}, nil
}

func newStoreFactory(b *backend, idGen usecase.IDGenerator, recorder usecase.Recorder, log zerolog.Logger) usecase.StoreFactory {
	storeLog := log.With().Str("component", "ledger").Logger()
	return func() *usecase.LedgerStore {
		return usecase.NewLedgerStore(b.ledger, idGen, b.retrier, recorder, storeLog)
	}
}

// newPublisher returns the Kafka publisher when brokers are configured and a
// logging publisher otherwise, along with its close function.
func newPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return eventpublisher.NewLogPublisher(log), func() {}
	}

	kafka := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing ledger events to kafka")

	return kafka, func() {
		if err := kafka.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close kafka writer")
		}
	}
}

// authenticator picks bearer tokens when auth is enabled and the trusted
// user header otherwise.
func authenticator(cfg *config.Config, m *metrics.Metrics) func(http.Handler) http.Handler {
	if !cfg.AuthEnabled {
		return middleware.HeaderIdentity(m)
	}
	return middleware.AuthMiddleware(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), m)
}

func redisCheck(client *goredis.Client) handler.ReadinessCheck {
	return handler.ReadinessCheck{
		Name: "redis",
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
