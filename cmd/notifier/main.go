package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mercatus/storefront/kafka"
	"github.com/mercatus/storefront/pkg/logger"
	"github.com/mercatus/storefront/pkg/tracing"
)

// The notifier consumes order lifecycle events and turns them into customer
// messages. Delivery to a real mail provider happens behind sendEmail; the
// core storefront never waits for any of this.
func main() {
	serviceName := getEnv("OTEL_SERVICE_NAME", "storefront-notifier")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	logger.Logger.Info().
		Str("service", serviceName).
		Msg("Starting notifier service")

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

	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	groupID := getEnv("KAFKA_GROUP_ID", "storefront-notifier")

	consumer, err := kafka.NewConsumer(brokers, groupID, []string{kafka.TopicOrderLifecycle})
	if err != nil {
		logger.Logger.Fatal().Err(err).Strs("brokers", brokers).Msg("Failed to connect to Kafka")
	}
	defer consumer.Close()

	consumer.RegisterHandler(kafka.EventTypeOrderCreated, notify("order_received"))
	consumer.RegisterHandler(kafka.EventTypeOrderPaid, notify("order_confirmation"))
	consumer.RegisterHandler(kafka.EventTypeOrderShipped, notify("shipping_notice"))
	consumer.RegisterHandler(kafka.EventTypeOrderDelivered, notify("delivery_notice"))
	consumer.RegisterHandler(kafka.EventTypeOrderCancelled, notify("cancellation_notice"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down notifier...")
}

// notify builds a handler that sends one message template for one lifecycle
// event type.
func notify(template string) kafka.EventHandler {
	return func(ctx context.Context, event kafka.OrderEvent) error {
		return sendEmail(ctx, event.CustomerEmail, template, event)
	}
}

// sendEmail is the provider seam. The development implementation logs the
// message instead of sending it.
func sendEmail(ctx context.Context, to, template string, event kafka.OrderEvent) error {
	logger.WithContext(ctx).Info().
		Str("to", to).
		Str("template", template).
		Str("order_reference", event.OrderRef).
		Str("total", event.Total.String()).
		Str("currency", event.Currency).
		Msg("Notification sent")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
