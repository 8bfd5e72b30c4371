package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/cart-api/internal/config"
	"github.com/fjod/go_cart/cart-api/internal/events"
	carthttp "github.com/fjod/go_cart/cart-api/internal/http"
	"github.com/fjod/go_cart/cart-api/internal/logger"
	"github.com/fjod/go_cart/cart-api/internal/metrics"
	"github.com/fjod/go_cart/cart-api/internal/ratelimit"
	"github.com/fjod/go_cart/cart-api/internal/repository"
	"github.com/fjod/go_cart/cart-api/internal/service"
	"github.com/fjod/go_cart/cart-api/internal/tracing"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to an optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx := context.Background()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logg.Fatal("Failed to init tracing", zap.Error(err))
	}
	logg.Info("Tracing initialized", zap.String("exporter", cfg.Tracing.Exporter))

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		logg.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	repo := repository.NewMongoRepository(mongoDB)
	if err := repository.EnsureIndexes(ctx, repo); err != nil {
		logg.Fatal("Failed to create indexes", zap.Error(err))
	}
	logg.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	m := metrics.New(cfg.Metrics.Namespace)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logg.Info("Publishing cart events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	publisher = m.InstrumentPublisher(publisher)

	var (
		redisClient *redis.Client
		limiter     *ratelimit.Limiter
	)
	if cfg.RateLimit.Enabled() {
		redisClient, err = ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			logg.Fatal("Redis connection failed", zap.Error(err))
		}
		limiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		logg.Info("Rate limiting enabled", zap.Int("requests", cfg.RateLimit.Requests), zap.Duration("window", cfg.RateLimit.Window))
	}

	carts := service.NewCartService(repo, publisher, logg)

	router := carthttp.NewRouter(carthttp.RouterConfig{
		Carts:              carts,
		DB:                 carts,
		Log:                logg,
		Metrics:            m,
		Limiter:            limiter,
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
		AllowedOrigins:     cfg.HTTP.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      otelhttp.NewHandler(router, cfg.Tracing.ServiceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logg.Info("Cart service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down cart service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
	}
	carts.Drain()
	if err := publisher.Close(); err != nil {
		logg.Warn("failed to close event publisher", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		logg.Warn("failed to disconnect from MongoDB", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logg.Warn("failed to flush traces", zap.Error(err))
	}
	logg.Info("Cart service stopped")
}
