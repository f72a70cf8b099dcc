package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ledgerline/spendtrack/internal/auth"
	"github.com/ledgerline/spendtrack/internal/config"
	"github.com/ledgerline/spendtrack/internal/event"
	handler "github.com/ledgerline/spendtrack/internal/handler/http"
	"github.com/ledgerline/spendtrack/internal/repository/postgres"
	redisrepo "github.com/ledgerline/spendtrack/internal/repository/redis"
	"github.com/ledgerline/spendtrack/internal/service"
	"github.com/ledgerline/spendtrack/migrations"
	"github.com/ledgerline/spendtrack/pkg/database"
	"github.com/ledgerline/spendtrack/pkg/health"
	pkgkafka "github.com/ledgerline/spendtrack/pkg/kafka"
	"github.com/ledgerline/spendtrack/pkg/tracing"
)

// Expired session rows are deleted on a fixed cadence rather than on
// access, keeping the sessions table from growing without bound.
const (
	sessionSweepInterval = time.Hour
	sessionSweepTimeout  = 30 * time.Second
)

// App wires together all dependencies and runs the spendtrack server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	authService    *service.AuthService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "spendtrack",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.OTLPEndpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "spendtrack")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis for the dashboard summary cache.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	tokenManager := auth.NewTokenManager(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		cfg.JWTAccessExpiry,
		cfg.JWTRefreshExpiry,
	)

	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	summaryCache := redisrepo.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)
	eventProducer := event.NewProducer(producer, logger)

	authService := service.NewAuthService(
		userRepo, sessionRepo, tokenManager, eventProducer, logger,
		cfg.SessionTTL, service.DefaultBcryptCost,
	)
	expenseService := service.NewExpenseService(expenseRepo, categoryRepo, summaryCache, eventProducer, logger)
	dashboardService := service.NewDashboardService(expenseRepo, summaryCache, logger)
	profileService := service.NewProfileService(userRepo, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	// Redis and Kafka outages degrade the service (stale dashboards, lost
	// events) but requests can still be served.
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP handlers and router.
	secureCookie := cfg.Environment != "development"
	authHandler := handler.NewAuthHandler(authService, logger, secureCookie)
	expenseHandler := handler.NewExpenseHandler(expenseService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	profileHandler := handler.NewProfileHandler(
		profileService, logger, cfg.UploadDir, cfg.MaxUploadSize, cfg.BaseURL,
	)

	router := handler.NewRouter(
		authHandler, expenseHandler, dashboardHandler, profileHandler,
		authService, healthHandler, logger,
		handler.RouterConfig{
			Environment:     cfg.Environment,
			CORSOrigins:     cfg.CORSAllowedOrigins,
			RateLimitRPS:    cfg.RateLimitRPS,
			RateLimitBurst:  cfg.RateLimitBurst,
			UploadDir:       cfg.UploadDir,
			PprofEnabled:    cfg.PprofEnabled,
			PprofAllowCIDRs: cfg.PprofAllowCIDRs,
		},
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		authService:    authService,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.sweepSessions(ctx)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// sweepSessions periodically purges expired session rows until the
// context is canceled. Failures are logged and retried on the next tick.
func (a *App) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, sessionSweepTimeout)
			if _, err := a.authService.PurgeExpiredSessions(sweepCtx); err != nil {
				a.logger.Error("session sweep failed", slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Redis client.
	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
