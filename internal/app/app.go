// Package app wires together all dependencies and runs the backend.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kokoruadmin/kokoru-backend/internal/auth"
	carthandler "github.com/kokoruadmin/kokoru-backend/internal/cart/handler/http"
	cartredis "github.com/kokoruadmin/kokoru-backend/internal/cart/repository/redis"
	cartservice "github.com/kokoruadmin/kokoru-backend/internal/cart/service"
	catalogevent "github.com/kokoruadmin/kokoru-backend/internal/catalog/event"
	cataloghandler "github.com/kokoruadmin/kokoru-backend/internal/catalog/handler/http"
	catalogpostgres "github.com/kokoruadmin/kokoru-backend/internal/catalog/repository/postgres"
	catalogservice "github.com/kokoruadmin/kokoru-backend/internal/catalog/service"
	checkouthandler "github.com/kokoruadmin/kokoru-backend/internal/checkout/handler/http"
	checkoutservice "github.com/kokoruadmin/kokoru-backend/internal/checkout/service"
	"github.com/kokoruadmin/kokoru-backend/internal/config"
	inventoryevent "github.com/kokoruadmin/kokoru-backend/internal/inventory/event"
	inventoryhandler "github.com/kokoruadmin/kokoru-backend/internal/inventory/handler/http"
	inventorypostgres "github.com/kokoruadmin/kokoru-backend/internal/inventory/repository/postgres"
	inventoryservice "github.com/kokoruadmin/kokoru-backend/internal/inventory/service"
	"github.com/kokoruadmin/kokoru-backend/internal/migrations"
	"github.com/kokoruadmin/kokoru-backend/internal/notification"
	orderevent "github.com/kokoruadmin/kokoru-backend/internal/order/event"
	orderhandler "github.com/kokoruadmin/kokoru-backend/internal/order/handler/http"
	orderpostgres "github.com/kokoruadmin/kokoru-backend/internal/order/repository/postgres"
	orderservice "github.com/kokoruadmin/kokoru-backend/internal/order/service"
	"github.com/kokoruadmin/kokoru-backend/internal/payment"
	promotionevent "github.com/kokoruadmin/kokoru-backend/internal/promotion/event"
	promotionhandler "github.com/kokoruadmin/kokoru-backend/internal/promotion/handler/http"
	promotionpostgres "github.com/kokoruadmin/kokoru-backend/internal/promotion/repository/postgres"
	promotionservice "github.com/kokoruadmin/kokoru-backend/internal/promotion/service"
	"github.com/kokoruadmin/kokoru-backend/pkg/database"
	"github.com/kokoruadmin/kokoru-backend/pkg/health"
	"github.com/kokoruadmin/kokoru-backend/pkg/httpclient"
	pkgkafka "github.com/kokoruadmin/kokoru-backend/pkg/kafka"
	"github.com/kokoruadmin/kokoru-backend/pkg/middleware"
	"github.com/kokoruadmin/kokoru-backend/pkg/tracing"
)

// App wires together all dependencies and runs the backend.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	redisClient     *redis.Client
	producer        *pkgkafka.Producer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "kokoru",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSample,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
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

	database.RegisterPoolMetrics(pool, "kokoru")

	// Initialize Redis (cart storage).
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
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

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Catalog
	productRepo := catalogpostgres.NewProductRepository(pool)
	productService := catalogservice.NewProductService(productRepo, catalogevent.NewProducer(producer, logger), logger)

	// Promotions
	couponRepo := promotionpostgres.NewCouponRepository(pool)
	offerRepo := promotionpostgres.NewOfferRepository(pool)
	promotionProducer := promotionevent.NewProducer(producer, logger)
	couponService := promotionservice.NewCouponService(couponRepo, promotionProducer, logger)
	offerService := promotionservice.NewOfferService(offerRepo, promotionProducer, logger)

	// Inventory
	stockRepo := inventorypostgres.NewStockRepository(pool)
	stockService := inventoryservice.NewStockService(stockRepo, inventoryevent.NewProducer(producer, logger), logger)

	// Notifications
	notifier := notification.NewNotifier(newMailSender(cfg, logger), cfg.AdminEmail)

	// Orders
	orderRepo := orderpostgres.NewOrderRepository(pool)
	orderSvc := orderservice.NewOrderService(orderRepo, stockService, notifier, orderevent.NewProducer(producer, logger), logger)

	// Cart
	cartRepo := cartredis.NewCartRepository(redisClient, time.Duration(cfg.CartTTL)*time.Hour)
	cartService := cartservice.NewCartService(cartRepo, productService, logger)

	// Checkout
	checkoutService := checkoutservice.NewCheckoutService(
		cartService,
		stockService,
		couponService,
		offerService,
		newPaymentVerifier(cfg, logger),
		orderSvc,
		notifier,
		logger,
	)

	// Health checks.
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

	// JWT validation.
	accessExpiry, err := time.ParseDuration(cfg.JWTAccessExpiry)
	if err != nil {
		return nil, fmt.Errorf("parse JWT_ACCESS_TOKEN_EXPIRY: %w", err)
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, accessExpiry)
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := newRouter(handlers{
		products: cataloghandler.NewProductHandler(productService, logger),
		coupons:  promotionhandler.NewCouponHandler(couponService, logger),
		offers:   promotionhandler.NewOfferHandler(offerService, logger),
		stock:    inventoryhandler.NewStockHandler(stockService, logger),
		cart:     carthandler.NewCartHandler(cartService, logger),
		orders:   orderhandler.NewOrderHandler(orderSvc, logger),
		checkout: checkouthandler.NewCheckoutHandler(checkoutService, logger),
	}, healthHandler, tokenValidator, corsCfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redisClient:     redisClient,
		producer:        producer,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// newPaymentVerifier picks the gateway signature verifier. Without a
// configured secret, development installs skip verification.
func newPaymentVerifier(cfg *config.Config, logger *slog.Logger) checkoutservice.PaymentVerifier {
	if cfg.PaymentSecret == "" {
		logger.Warn("RAZORPAY_KEY_SECRET not set, payment signature verification disabled")
		return payment.NopVerifier{}
	}
	return payment.NewHMACVerifier(cfg.PaymentSecret)
}

// newMailSender picks the transactional mail transport. Without a
// configured mail API the notifier logs instead of sending.
func newMailSender(cfg *config.Config, logger *slog.Logger) notification.Sender {
	if cfg.MailAPIURL == "" {
		return notification.NewLogSender(logger)
	}

	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("mail-api"), logger)
	return notification.NewMailAPISender(cb, cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, logger)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
