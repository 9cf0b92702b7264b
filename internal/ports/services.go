// Package ports defines the interfaces between the application services and
// the infrastructure that carries their events.
package ports

import (
	"context"

	"order-flow/internal/shared/contracts"
)

// EventPublisher sends a serialized event to an exchange under a routing key.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// PaymentDecider decides the outcome of a payment for one order. Implementations
// range from the randomized simulator to a real gateway integration; the
// surrounding state machine does not change between them.
type PaymentDecider interface {
	Decide(ctx context.Context, order contracts.OrderCreatedEvent) contracts.PaymentResultEvent
}

// SubmitCommand is a validated-at-the-service order submission. Amount is a
// pointer so an absent amount is distinguishable from zero.
type SubmitCommand struct {
	CustomerEmail string
	Amount        *float64
	Currency      string
}

// OrderService accepts order submissions and publishes order.created events.
type OrderService interface {
	Submit(ctx context.Context, cmd SubmitCommand) (contracts.OrderCreatedEvent, error)
}
