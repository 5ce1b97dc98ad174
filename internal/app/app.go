// Package app wires the storefront's dependency graph and owns its
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/geloski43/edcommerce/internal/cart"
	cartredis "github.com/geloski43/edcommerce/internal/cart/redis"
	"github.com/geloski43/edcommerce/internal/catalog"
	"github.com/geloski43/edcommerce/internal/catalogsync"
	"github.com/geloski43/edcommerce/internal/checkout"
	"github.com/geloski43/edcommerce/internal/config"
	"github.com/geloski43/edcommerce/internal/event"
	"github.com/geloski43/edcommerce/internal/fulfillment"
	fulfillmentpg "github.com/geloski43/edcommerce/internal/fulfillment/postgres"
	handler "github.com/geloski43/edcommerce/internal/handler/http"
	"github.com/geloski43/edcommerce/internal/identity"
	"github.com/geloski43/edcommerce/internal/mailer"
	"github.com/geloski43/edcommerce/internal/orders"
	"github.com/geloski43/edcommerce/internal/payment"
	"github.com/geloski43/edcommerce/internal/storage"
	"github.com/geloski43/edcommerce/migrations"
	"github.com/geloski43/edcommerce/pkg/database"
	"github.com/geloski43/edcommerce/pkg/health"
	"github.com/geloski43/edcommerce/pkg/httpclient"
	pkgkafka "github.com/geloski43/edcommerce/pkg/kafka"
	"github.com/geloski43/edcommerce/pkg/middleware"
	"github.com/geloski43/edcommerce/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "store",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// One breaker per provider so a single flapping dependency cannot trip
	// the others.
	baseClient := httpclient.New(httpclient.DefaultConfig())
	catalogHTTP := httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("catalog"), logger)
	paymentHTTP := httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("payment"), logger)
	storageHTTP := httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("storage"), logger)
	mailHTTP := httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("mail"), logger)

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogToken, catalogHTTP)
	mirror := catalog.NewMirror(catalogClient, redisClient, cfg.MirrorTTL(), logger)
	paymentClient := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey, paymentHTTP)
	storageClient := storage.NewClient(cfg.StorageBaseURL, cfg.StorageToken, storageHTTP)
	mailClient := mailer.NewClient(cfg.MailBaseURL, cfg.MailAPIKey, cfg.MailFrom, mailHTTP)

	eventProducer := event.NewProducer(producer, logger)

	cartRepo := cartredis.NewCartRepository(redisClient, cfg.CartTTL())
	cartService := cart.NewService(cartRepo, mirror, logger)

	verifier := identity.NewVerifier(cfg.SessionSecret, cfg.SessionIssuer)
	bridge := identity.NewBridge(verifier, catalogClient, cfg.BlockedURL, logger)

	checkoutService := checkout.NewService(catalogClient, paymentClient, mirror, eventProducer, checkout.Config{
		SuccessRedirectURL: cfg.SuccessRedirectURL,
		FailureRedirectURL: cfg.FailureRedirectURL,
		Description:        cfg.OrderDescription,
	}, logger)

	fulfillmentRepo := fulfillmentpg.NewFulfillmentRepository(pool)
	fulfillmentService := fulfillment.NewService(fulfillmentRepo, catalogClient, storageClient, mailClient, eventProducer, logger)

	ordersService := orders.NewService(catalogClient, logger)
	syncService := catalogsync.NewService(catalogClient, storageClient, mirror, cfg.SyncRootFolderID, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment
	corsCfg.AllowedHeaders = append(corsCfg.AllowedHeaders, "X-Session-ID")

	router := handler.NewRouter(handler.Services{
		Cart:        cartService,
		Mirror:      mirror,
		Checkout:    checkoutService,
		Fulfillment: fulfillmentService,
		Orders:      ordersService,
		Sync:        syncService,
		Identity:    bridge,
		Health:      healthHandler,
	}, handler.RouterConfig{
		CORS:          corsCfg,
		CallbackToken: cfg.CallbackToken,
		SyncSecret:    cfg.SyncSecret,
		CheckoutRPS:   cfg.CheckoutRPS,
		CheckoutBurst: cfg.CheckoutBurst,
	}, logger)

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
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully stops all components: drain HTTP, flush spans, close
// the Kafka producer, then drop the store connections.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
