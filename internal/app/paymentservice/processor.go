// Package paymentservice consumes order.created events, runs a payment
// decision, and publishes the result to the payments exchange.
package paymentservice

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"order-flow/internal/ports"
	"order-flow/internal/shared/contracts"
	"order-flow/internal/shared/logger"
	"order-flow/internal/shared/rabbitmq"
)

// Processor handles one order.created delivery end-to-end: decode, decide,
// publish the result, and only then let the delivery be acknowledged. A
// failed publish leaves the delivery unacknowledged so the broker redelivers
// it; a duplicate payment attempt after a crash is the accepted tradeoff of
// at-least-once delivery.
type Processor struct {
	paymentExchange string
	decider         ports.PaymentDecider
	pub             ports.EventPublisher
	logger          *logger.Logger
}

// NewProcessor creates a Processor publishing results to the given exchange.
func NewProcessor(paymentExchange string, decider ports.PaymentDecider, pub ports.EventPublisher, logger *logger.Logger) *Processor {
	return &Processor{
		paymentExchange: paymentExchange,
		decider:         decider,
		pub:             pub,
		logger:          logger,
	}
}

// Handle is the rabbitmq.HandlerFunc for the payment queue.
func (p *Processor) Handle(ctx context.Context, d amqp.Delivery) rabbitmq.Action {
	var order contracts.OrderCreatedEvent
	if err := json.Unmarshal(d.Body, &order); err != nil {
		// an undecodable payload never becomes decodable on redelivery
		p.logger.Error(ctx, "order_decode_failed", "Failed to decode order.created payload", err)
		return rabbitmq.Reject
	}

	p.logger.Info(ctx, "order_received", "Received order.created", map[string]any{
		"order_id": order.OrderID,
	})

	result := p.decider.Decide(ctx, order)

	body, err := json.Marshal(result)
	if err != nil {
		p.logger.Error(ctx, "payment_encode_failed", "Failed to encode payment result", err)
		return rabbitmq.Requeue
	}

	// routing key is the result's own event type: payment.success | payment.failed
	if err := p.pub.Publish(p.paymentExchange, result.EventType, body); err != nil {
		p.logger.Error(ctx, "payment_publish_failed", "Failed to publish payment result; leaving order unacked", err)
		return rabbitmq.Requeue
	}

	p.logger.Info(ctx, "payment_published", "Published payment result", map[string]any{
		"order_id":   result.OrderID,
		"event_type": result.EventType,
	})

	return rabbitmq.Ack
}
