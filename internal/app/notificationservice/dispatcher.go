// Package notificationservice renders user-facing notifications for order and
// payment events. Rendering is side-effect-only; nothing flows back into the
// event stream.
package notificationservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	amqp "github.com/rabbitmq/amqp091-go"

	"order-flow/internal/shared/contracts"
	"order-flow/internal/shared/logger"
	"order-flow/internal/shared/rabbitmq"
)

// Dispatcher consumes order and payment events from two independent queues
// and renders an email line per event.
type Dispatcher struct {
	logger *logger.Logger
	out    io.Writer
}

// NewDispatcher creates a Dispatcher writing rendered notifications to stdout.
func NewDispatcher(logger *logger.Logger) *Dispatcher {
	return &Dispatcher{logger: logger, out: os.Stdout}
}

// HandleOrderEvent is the rabbitmq.HandlerFunc for the order events queue.
func (dispatcher *Dispatcher) HandleOrderEvent(ctx context.Context, d amqp.Delivery) rabbitmq.Action {
	var event contracts.OrderCreatedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		dispatcher.logger.Error(ctx, "notification_decode_failed", "Failed to decode order event", err)
		return rabbitmq.Reject
	}

	fmt.Fprintln(dispatcher.out, renderEmail(event.CustomerEmail, "Order received", event.OrderID, nil))

	dispatcher.logger.Debug(ctx, "notification_sent", "Rendered order notification", map[string]any{
		"order_id": event.OrderID,
		"to":       event.CustomerEmail,
	})

	return rabbitmq.Ack
}

// HandlePaymentEvent is the rabbitmq.HandlerFunc for the payment events queue.
func (dispatcher *Dispatcher) HandlePaymentEvent(ctx context.Context, d amqp.Delivery) rabbitmq.Action {
	var event contracts.PaymentResultEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		dispatcher.logger.Error(ctx, "notification_decode_failed", "Failed to decode payment event", err)
		return rabbitmq.Reject
	}

	subject := "Payment failed"
	if event.EventType == contracts.EventPaymentSuccess {
		subject = "Payment successful"
	}

	fmt.Fprintln(dispatcher.out, renderEmail(event.CustomerEmail, subject, event.OrderID, event.Reason))

	dispatcher.logger.Debug(ctx, "notification_sent", "Rendered payment notification", map[string]any{
		"order_id":   event.OrderID,
		"event_type": event.EventType,
		"to":         event.CustomerEmail,
	})

	return rabbitmq.Ack
}

// renderEmail formats the human-readable notification line.
func renderEmail(to, subject, orderID string, reason *string) string {
	line := fmt.Sprintf("EMAIL => To: %s | Subject: %s | Order ID: %s", to, subject, orderID)
	if reason != nil && *reason != "" {
		line += " | Reason: " + *reason
	}
	return line
}
