package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/summer-camp-school/camp-service/internal/auth"
	"github.com/summer-camp-school/camp-service/internal/config"
	"github.com/summer-camp-school/camp-service/internal/events"
	"github.com/summer-camp-school/camp-service/internal/handlers"
	"github.com/summer-camp-school/camp-service/internal/metrics"
	"github.com/summer-camp-school/camp-service/internal/payment"
	"github.com/summer-camp-school/camp-service/internal/repositories/postgres"
	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/utils"
	"github.com/summer-camp-school/camp-service/internal/validator"
	"github.com/summer-camp-school/camp-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Redis only backs the listing cache; run without it when unreachable
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, listing cache disabled", "error", err)
			redisClient = nil
		}
	}

	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})

	publisher, err := events.NewPublisher(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	tokens, err := auth.NewTokenService(cfg.Auth.TokenSecret, auth.WithTTL(cfg.Auth.TokenTTL))
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}
	var verifier auth.Verifier = tokens
	if cfg.Casdoor.Enabled() {
		verifier = auth.ChainVerifier{tokens, auth.NewCasdoorVerifier(cfg.Casdoor)}
		logger.Info("Casdoor token verification enabled", "endpoint", cfg.Casdoor.Endpoint)
	}

	validator := validator.New()

	serviceManager := services.NewServiceManager(
		repo,
		payment.NewSSLCommerz(cfg.Payment),
		publisher,
		recorder,
		slogLogger,
		validator,
		services.ServiceManagerConfig{Payment: cfg.Payment},
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	var rateLimiter *handlers.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = handlers.NewRateLimiter(handlers.RateLimiterConfig{
			Rate:           rate.Limit(cfg.RateLimitRPS),
			Burst:          cfg.RateLimitBurst,
			ExemptPrefixes: []string{"/payment/"},
		}, recorder)
	}

	handlers.SetupMiddleware(router, logger, handlers.MiddlewareConfig{
		AllowedOrigin: cfg.CORSAllowedOrigin,
		Metrics:       recorder,
		RateLimiter:   rateLimiter,
	})

	handlers.NewHandlerManager(handlers.HandlerDeps{
		Services:                serviceManager,
		Verifier:                verifier,
		Issuer:                  tokens,
		Validator:               validator,
		Logger:                  logger,
		Gatherer:                registry,
		RoleUpdateRequiresAdmin: cfg.Auth.RoleUpdateRequiresAdmin,
	}).SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if rateLimiter != nil {
		rateLimiter.Stop()
	}

	// closes the publisher and the database pool
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
