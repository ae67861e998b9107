package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/mercatus/storefront/api-gateway/config"
	"github.com/mercatus/storefront/api-gateway/health"
	"github.com/mercatus/storefront/api-gateway/middleware"
	"github.com/mercatus/storefront/api-gateway/proxy"
	"github.com/mercatus/storefront/pkg/logger"
	"github.com/mercatus/storefront/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "api-gateway")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Msg("Starting API Gateway")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Initialize Redis for rate limiting and response caching
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", redisAddr).
			Msg("Failed to connect to Redis - rate limiting and caching disabled")
		redisClient = nil
	} else {
		logger.Logger.Info().
			Str("redis_addr", redisAddr).
			Msg("Connected to Redis")
	}

	// Load configuration
	cfg := config.LoadConfig()

	// Storefront proxy, breaker and health checker
	storefrontProxy := proxy.NewReverseProxy(cfg)
	breaker := middleware.NewCircuitBreaker(cfg.Upstream.Name, 5, 30*time.Second)
	healthChecker := health.NewHealthChecker(cfg)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Storefront Gateway",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	setupMiddleware(app, redisClient, breaker)
	setupRoutes(app, storefrontProxy, breaker, healthChecker, redisClient)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Logger.Info().
			Str("addr", addr).
			Strs("storefront_instances", cfg.Upstream.Instances).
			Msg("API Gateway listening")

		if err := app.Listen(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down API Gateway...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
}

// setupMiddleware configures global middleware
func setupMiddleware(app *fiber.App, redisClient *redis.Client, breaker *middleware.CircuitBreaker) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID first, then tracing so the span covers everything below
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLoggingMiddleware())

	if redisClient != nil {
		cacheConfig := middleware.DefaultCacheConfig()
		app.Use(middleware.CacheMiddleware(redisClient, cacheConfig))
		logger.Logger.Info().
			Dur("ttl", cacheConfig.DefaultTTL).
			Msg("Response caching enabled for catalog reads")
	}

	app.Use(middleware.CircuitBreakerMiddleware(breaker))

	if redisClient != nil {
		app.Use(middleware.GlobalRateLimiter(redisClient))
		app.Use("/api/checkout", middleware.CheckoutRateLimiter(redisClient))
		logger.Logger.Info().Msg("Rate limiting enabled (100 req/min, 10 checkouts/min)")
	} else {
		logger.Logger.Warn().Msg("Rate limiting disabled (Redis not available)")
	}

	allowOrigins := getEnv("CORS_ALLOWED_ORIGINS", "*")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-Id, traceparent, tracestate",
		AllowCredentials: true,
		ExposeHeaders:    "X-Request-Id, X-Trace-Id, X-Cache, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
		MaxAge:           86400,
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes wires gateway endpoints and the storefront proxy
func setupRoutes(
	app *fiber.App,
	storefrontProxy *proxy.ReverseProxy,
	breaker *middleware.CircuitBreaker,
	healthChecker *health.HealthChecker,
	redisClient *redis.Client,
) {
	app.Get("/gateway/health", func(c *fiber.Ctx) error {
		return c.JSON(healthChecker.QuickCheck())
	})

	app.Get("/gateway/health/services", func(c *fiber.Ctx) error {
		return c.JSON(healthChecker.CheckAll(c.UserContext()))
	})

	app.Get("/gateway/stats", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"load_balancer":   storefrontProxy.LoadBalancer().Stats(),
			"circuit_breaker": breaker.Stats(),
		})
	})

	// Catalog writes invalidate the cached reads
	if redisClient != nil {
		app.Use("/api/products", func(c *fiber.Ctx) error {
			err := c.Next()
			if c.Method() != fiber.MethodGet && c.Response().StatusCode() < 400 {
				if invErr := middleware.InvalidateCache(redisClient, "cache:*"); invErr != nil {
					logger.Logger.Warn().Err(invErr).Msg("Cache invalidation failed")
				}
			}
			return err
		})
	}

	// Everything else goes to the storefront
	app.All("/api/*", storefrontProxy.Forward)
	app.All("/health", storefrontProxy.Forward)
	app.All("/metrics", storefrontProxy.Forward)
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":      err.Error(),
		"statusCode": code,
		"path":       c.Path(),
		"method":     c.Method(),
		"requestId":  c.Get("X-Request-Id"),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
