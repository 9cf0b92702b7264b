// Package contracts defines the wire-format events exchanged between services.
package contracts

import "time"

// Event type constants. The event type doubles as the AMQP routing key.
const (
	EventOrderCreated   = "order.created"
	EventPaymentSuccess = "payment.success"
	EventPaymentFailed  = "payment.failed"
)

// PaymentEventPattern matches any payment sub-event on a topic exchange.
const PaymentEventPattern = "payment.*"

// OrderCreatedEvent is published to the orders exchange when an order is accepted.
// Events are immutable once serialized; state transitions produce new events.
type OrderCreatedEvent struct {
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentResultEvent is published to the payments exchange after a payment
// decision. Reason is null on success and a human-readable string on failure.
type PaymentResultEvent struct {
	EventType     string    `json:"event_type"` // payment.success | payment.failed
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	ProcessedAt   time.Time `json:"processed_at"`
	Reason        *string   `json:"reason"`
}
