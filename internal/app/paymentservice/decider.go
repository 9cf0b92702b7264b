package paymentservice

import (
	"context"
	"math/rand"
	"time"

	"order-flow/internal/ports"
	"order-flow/internal/shared/contracts"
)

// Sleeper simulates gateway latency (time.Sleep in prod, no-op in tests).
type Sleeper func(d time.Duration)

// GatewaySimulator is a stand-in payment gateway: it waits a fixed latency and
// approves the payment with a fixed probability. Swap it for a real gateway
// client by implementing ports.PaymentDecider.
type GatewaySimulator struct {
	Latency     time.Duration
	SuccessRate float64
	Rand        *rand.Rand
	Sleep       Sleeper
}

// Ensure GatewaySimulator implements the interface at compile time.
var _ ports.PaymentDecider = (*GatewaySimulator)(nil)

const declineReason = "Card declined by mock gateway"

// NewGatewaySimulator returns a simulator with production defaults:
// 1.2s latency and an 85% approval rate.
func NewGatewaySimulator() *GatewaySimulator {
	return &GatewaySimulator{
		Latency:     1200 * time.Millisecond,
		SuccessRate: 0.85,
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		Sleep:       time.Sleep,
	}
}

// Decide produces exactly one PaymentResultEvent for the given order, copying
// the order's identifying fields forward and stamping the decision time.
func (g *GatewaySimulator) Decide(_ context.Context, order contracts.OrderCreatedEvent) contracts.PaymentResultEvent {
	if g.Latency > 0 {
		g.Sleep(g.Latency)
	}

	result := contracts.PaymentResultEvent{
		EventType:     contracts.EventPaymentSuccess,
		OrderID:       order.OrderID,
		CustomerEmail: order.CustomerEmail,
		Amount:        order.Amount,
		Currency:      order.Currency,
		ProcessedAt:   time.Now().UTC(),
	}

	if g.Rand.Float64() >= g.SuccessRate {
		reason := declineReason
		result.EventType = contracts.EventPaymentFailed
		result.Reason = &reason
	}

	return result
}
