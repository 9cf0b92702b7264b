package orderservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	service "order-flow/internal/app/orderservice"
	"order-flow/internal/shared/config"
	"order-flow/internal/shared/logger"
	"order-flow/internal/shared/rabbitmq"
)

func Run(ctx context.Context, port int) error {
	// set up a new logger for the order service with a static request ID for startup logs
	log := logger.NewLogger("order-service")
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

	svc := service.New(cfg.OrderExchange, &rabbitmq.MQPublisher{Client: rmq}, log)
	router := service.NewRouter(svc, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info(ctx, "service_started", "Order service started", map[string]any{
		"port":     port,
		"exchange": cfg.OrderExchange,
	})

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error(ctx, "http_server_failed", "HTTP server stopped unexpectedly", err)
		return err
	}

	// graceful HTTP shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "http_shutdown_failed", "Failed to shut down HTTP server cleanly", err)
		return err
	}

	log.Info(log.WithRequestID(context.Background(), "shutdown-001"), "graceful_shutdown", "Order service stopped", nil)
	return nil
}
