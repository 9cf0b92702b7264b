package paymentservice

import (
	"context"
	"fmt"
	"os"

	service "order-flow/internal/app/paymentservice"
	"order-flow/internal/shared/config"
	"order-flow/internal/shared/logger"
	"order-flow/internal/shared/rabbitmq"
)

func Run(ctx context.Context, prefetch int) error {
	// set up a new logger for the payment worker with a static request ID for startup logs
	log := logger.NewLogger("payment-worker")
	defer log.Sync()
	ctx = log.WithRequestID(ctx, "startup-001")

	// load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}

	// connect to RabbitMQ with bounded retry; no partial startup
	rmq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err)
		return err
	}
	defer rmq.Close()

	decider := service.NewGatewaySimulator()
	processor := service.NewProcessor(cfg.PaymentExchange, decider, &rabbitmq.MQPublisher{Client: rmq}, log)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	consumerTag := fmt.Sprintf("payment-worker-%s", hostname)

	log.Info(ctx, "service_started", "Payment worker started", map[string]any{
		"queue":    cfg.PaymentQueue,
		"prefetch": prefetch,
	})

	// blocks until ctx is cancelled
	rabbitmq.ConsumeLoop(ctx, rmq, cfg.PaymentQueue, consumerTag, prefetch, processor.Handle, log)

	log.Info(log.WithRequestID(context.Background(), "shutdown-001"), "graceful_shutdown", "Payment worker stopped", nil)
	return nil
}
