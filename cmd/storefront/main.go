package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"

	catalogHTTP "github.com/mercatus/storefront/internal/catalog/delivery/http"
	catalogdomain "github.com/mercatus/storefront/internal/catalog/domain"
	catalogrepository "github.com/mercatus/storefront/internal/catalog/repository"
	catalogcommand "github.com/mercatus/storefront/internal/catalog/usecase/command"
	"github.com/mercatus/storefront/internal/inventory"
	inventoryHTTP "github.com/mercatus/storefront/internal/inventory/delivery/http"
	inventorydomain "github.com/mercatus/storefront/internal/inventory/domain"
	inventoryrepository "github.com/mercatus/storefront/internal/inventory/repository"
	"github.com/mercatus/storefront/internal/order"
	orderHTTP "github.com/mercatus/storefront/internal/order/delivery/http"
	orderdomain "github.com/mercatus/storefront/internal/order/domain"
	orderrepository "github.com/mercatus/storefront/internal/order/repository"
	ordercommand "github.com/mercatus/storefront/internal/order/usecase/command"
	pricingdomain "github.com/mercatus/storefront/internal/pricing/domain"
	"github.com/mercatus/storefront/internal/pricing/rates"
	storeHTTP "github.com/mercatus/storefront/internal/store/delivery/http"
	storedomain "github.com/mercatus/storefront/internal/store/domain"
	storerepository "github.com/mercatus/storefront/internal/store/repository"
	storecommand "github.com/mercatus/storefront/internal/store/usecase/command"
	"github.com/mercatus/storefront/kafka"
	"github.com/mercatus/storefront/pkg/database"
	"github.com/mercatus/storefront/pkg/logger"
	"github.com/mercatus/storefront/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "storefront-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting storefront service")

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

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "storefrontdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&storedomain.Store{},
		&catalogdomain.Product{},
		&catalogdomain.Variant{},
		&catalogdomain.Warehouse{},
		&inventorydomain.InventoryLevel{},
		&inventorydomain.InventoryAdjustment{},
		&pricingdomain.Discount{},
		&pricingdomain.GiftCard{},
		&orderdomain.Order{},
		&orderdomain.OrderLineItem{},
		&orderdomain.Refund{},
	); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Kafka publisher for order lifecycle events. The service runs without
	// it when brokers are unreachable; events are then skipped.
	var publisher ordercommand.EventPublisher
	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaPublisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Error().Err(err).Strs("brokers", brokers).Msg("Failed to connect to Kafka, order events disabled")
	} else {
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Logger.Info().Strs("brokers", brokers).Msg("Kafka publisher initialized")
	}

	// Redis-backed FX rate cache over the static rate table
	redisClient := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	fxSource := rates.NewStaticFXSource(defaultFXRates())
	fxLookup := rates.NewCachedFXLookup(fxSource, redisClient, 15*time.Minute)

	taxTable := rates.NewTaxTable()

	// Initialize order handler with Wire DI
	orderHandler, err := order.InitializeHTTPHandler(db, publisher, taxTable, fxLookup)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize order handler")
	}

	// Initialize inventory handler with Wire DI
	inventoryHandler, err := inventory.InitializeHTTPHandler(db)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize inventory handler")
	}

	// Store and catalog handlers
	storeRepo := storerepository.NewGormStoreRepository(db)
	productRepo := catalogrepository.NewGormProductRepository(db)
	warehouseRepo := catalogrepository.NewGormWarehouseRepository(db)
	orderRepo := orderrepository.NewGormOrderRepository(db)
	ledger := inventoryrepository.NewLedgerWithTracing(db)
	txManager := database.NewGormTxManager(db)

	storeHandler := storeHTTP.NewStoreHandler(
		storecommand.NewCreateStoreHandler(storeRepo),
		storecommand.NewDeleteStoreHandler(storeRepo, orderRepo),
		storeRepo,
	)
	catalogHandler := catalogHTTP.NewCatalogHandler(
		catalogcommand.NewCreateProductHandler(productRepo),
		catalogcommand.NewCreateWarehouseHandler(txManager, warehouseRepo),
		catalogcommand.NewDeleteWarehouseHandler(warehouseRepo, ledger),
		productRepo,
		warehouseRepo,
	)

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8080")
	go startHTTPServer(orderHandler, inventoryHandler, storeHandler, catalogHandler, sqlDB, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startHTTPServer(
	orderHandler *orderHTTP.OrderHandler,
	inventoryHandler *inventoryHTTP.InventoryHandler,
	storeHandler *storeHTTP.StoreHandler,
	catalogHandler *catalogHTTP.CatalogHandler,
	db *sql.DB,
	port string,
) {
	// Setup router
	router := mux.NewRouter()

	// Register middlewares
	orderHTTP.RegisterMiddlewares(router, orderHTTP.DefaultMiddlewareConfig())

	// Register routes
	orderHandler.RegisterRoutes(router)
	inventoryHandler.RegisterRoutes(router)
	storeHandler.RegisterRoutes(router)
	catalogHandler.RegisterRoutes(router)

	// Health check endpoint
	orderHandler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	if err := http.ListenAndServe(":"+port, c.Handler(router)); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

// defaultFXRates is the fallback rate table used when no external provider
// is configured. Pairs are keyed "FROM/TO".
func defaultFXRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.92"),
		"EUR/USD": decimal.RequireFromString("1.09"),
		"USD/GBP": decimal.RequireFromString("0.79"),
		"GBP/USD": decimal.RequireFromString("1.27"),
		"USD/JPY": decimal.RequireFromString("147.2"),
		"JPY/USD": decimal.RequireFromString("0.0068"),
		"USD/CAD": decimal.RequireFromString("1.36"),
		"CAD/USD": decimal.RequireFromString("0.74"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
