package notificationservice

import (
	"context"
	"sync"

	service "order-flow/internal/app/notificationservice"
	"order-flow/internal/shared/config"
	"order-flow/internal/shared/logger"
	"order-flow/internal/shared/rabbitmq"
)

func Run(ctx context.Context, prefetch int) error {
	// set up a new logger for the notification subscriber with a static request ID for startup logs
	log := logger.NewLogger("notification-subscriber")
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

	dispatcher := service.NewDispatcher(log)

	log.Info(ctx, "service_started", "Notification subscriber started", map[string]any{
		"order_queue":   cfg.NotificationOrderQueue,
		"payment_queue": cfg.NotificationPaymentQueue,
	})

	// two independent subscriptions, each with its own channel and queue
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rabbitmq.ConsumeLoop(ctx, rmq, cfg.NotificationOrderQueue, "notification-orders", prefetch, dispatcher.HandleOrderEvent, log)
	}()
	go func() {
		defer wg.Done()
		rabbitmq.ConsumeLoop(ctx, rmq, cfg.NotificationPaymentQueue, "notification-payments", prefetch, dispatcher.HandlePaymentEvent, log)
	}()

	<-ctx.Done()
	wg.Wait()

	log.Info(log.WithRequestID(context.Background(), "shutdown-001"), "graceful_shutdown", "Notification subscriber stopped", nil)
	return nil
}
