package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"order-flow/internal/shared/config"
	"order-flow/internal/shared/contracts"
	"order-flow/internal/shared/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client is a resilient RabbitMQ connector with auto-reconnect and topology setup.
// It is created once per process and passed into each component that needs it.
type Client struct {
	url    string
	cfg    *config.Config
	logger *logger.Logger
	logCtx context.Context // carries context with request_id across reconnects

	mu      sync.RWMutex
	conn    *amqp.Connection
	pubChan *amqp.Channel

	closed    chan struct{}
	reconnect chan struct{}
}

// MQPublisher is a simple RabbitMQ publisher using the Client.
type MQPublisher struct {
	Client *Client
}

// Publish sends a message to the specified RabbitMQ exchange and routing key.
func (p *MQPublisher) Publish(exchange, routingKey string, body []byte) error {
	return p.Client.PublishMessage(exchange, routingKey, body)
}

// Connect establishes a connection with bounded retry and starts a background
// watcher that reconnects on failures. Exhausting the retries is the one
// unrecoverable error in the system; the caller is expected to terminate.
func Connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Client, error) {
	client := &Client{
		url:       cfg.RabbitMQURL,
		cfg:       cfg,
		logger:    log,
		logCtx:    context.WithoutCancel(ctx), // avoid ctx cancel on reconnects
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectMaxRetries; attempt++ {
		lastErr = client.connectOnce(ctx)
		if lastErr == nil {
			// background watcher for reconnects after startup
			go client.watch()
			return client, nil
		}

		log.Error(ctx, "rabbitmq_not_ready",
			fmt.Sprintf("RabbitMQ not ready (attempt %d/%d)", attempt, cfg.ConnectMaxRetries), lastErr)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectRetryDelay):
		}
	}

	return nil, fmt.Errorf("could not connect to RabbitMQ after %d attempts: %w", cfg.ConnectMaxRetries, lastErr)
}

// NewConsumerChannel returns a fresh channel with prefetch (QoS) applied.
func (client *Client) NewConsumerChannel(prefetch int) (*amqp.Channel, error) {
	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, errors.New("rabbitmq: connection is not ready")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			ch.Close()
			return nil, err
		}
	}

	return ch, nil
}

// PublishMessage publishes a persistent application/json message. The publish
// channel is process-wide; the mutex keeps the single-writer discipline.
func (client *Client) PublishMessage(exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(ctx,
		exchange, routingKey, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}

// Close gracefully stops the watcher and closes AMQP resources.
func (client *Client) Close() {
	select {
	case <-client.closed:
		// already closed
	default:
		close(client.closed)
	}

	client.mu.Lock()
	if client.pubChan != nil {
		_ = client.pubChan.Close()
		client.pubChan = nil
	}
	if client.conn != nil {
		_ = client.conn.Close()
		client.conn = nil
	}
	client.mu.Unlock()
}

// --- internals ---

// connectOnce tries to connect and set up topology once.
func (client *Client) connectOnce(ctx context.Context) error {
	start := time.Now().UTC()

	conn, err := amqp.DialConfig(client.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	// declare/ensure topology idempotently
	if err := declareTopology(ch, client.cfg); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	client.mu.Lock()
	client.conn = conn
	if client.pubChan != nil {
		_ = client.pubChan.Close()
	}
	client.pubChan = ch
	client.mu.Unlock()

	// watch for connection/channel closures and trigger reconnect
	go func() {
		// Either the connection or the publisher channel closing should trigger reconnect
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-client.closed:
			return
		case <-connClosed:
		case <-chClosed:
		}

		select {
		case client.reconnect <- struct{}{}:
		default:
			// already enqueued; no-op
		}
	}()

	client.logger.Info(ctx, "rabbitmq_connected",
		fmt.Sprintf("Connected to RabbitMQ; exchanges: %s, %s", client.cfg.OrderExchange, client.cfg.PaymentExchange),
		map[string]any{"duration_ms": time.Since(start).Milliseconds()})

	return nil
}

// watch runs in background and attempts reconnects with exponential backoff.
func (client *Client) watch() {
	backoff := time.Second
	for {
		select {
		case <-client.closed:
			return
		case <-client.reconnect:
			// attempt reconnect until success or Close()
			for {
				select {
				case <-client.closed:
					return
				default:
				}

				ctx, cancel := context.WithTimeout(client.logCtx, 30*time.Second)
				err := client.connectOnce(ctx)
				cancel()

				if err == nil {
					backoff = time.Second
					client.logger.Info(client.logCtx, "rabbitmq_reconnected", "Reconnected to RabbitMQ and re-ensured topology", nil)
					break
				}

				client.logger.Error(client.logCtx, "retry_attempted", fmt.Sprintf("RabbitMQ reconnect failed: %v", err), err)

				time.Sleep(backoff)
				backoff = nextBackoff(backoff, 30*time.Second)
			}
		}
	}
}

// declareTopology declares the durable exchanges, queues, and bindings all
// three services share. Redeclaring with identical parameters is a no-op on
// the broker side, so every service can run this safely at startup.
func declareTopology(ch *amqp.Channel, cfg *config.Config) error {
	// durable topic exchanges
	if err := ch.ExchangeDeclare(cfg.OrderExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(cfg.PaymentExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	// payment worker queue: every order.created fans out here
	if _, err := ch.QueueDeclare(cfg.PaymentQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(cfg.PaymentQueue, contracts.EventOrderCreated, cfg.OrderExchange, false, nil); err != nil {
		return err
	}

	// notification queues: an independent copy of order.created, plus all payment.* events
	if _, err := ch.QueueDeclare(cfg.NotificationOrderQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(cfg.NotificationOrderQueue, contracts.EventOrderCreated, cfg.OrderExchange, false, nil); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(cfg.NotificationPaymentQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(cfg.NotificationPaymentQueue, contracts.PaymentEventPattern, cfg.PaymentExchange, false, nil); err != nil {
		return err
	}

	return nil
}
