package paymentservice

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-flow/internal/shared/contracts"
)

func testOrder() contracts.OrderCreatedEvent {
	return contracts.OrderCreatedEvent{
		EventType:     contracts.EventOrderCreated,
		OrderID:       "order-123",
		CustomerEmail: "a@b.com",
		Amount:        50,
		Currency:      "EUR",
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDecide_AlwaysSucceed(t *testing.T) {
	g := &GatewaySimulator{
		SuccessRate: 1.0,
		Rand:        rand.New(rand.NewSource(1)),
		Sleep:       func(time.Duration) {},
	}

	result := g.Decide(context.Background(), testOrder())

	assert.Equal(t, contracts.EventPaymentSuccess, result.EventType)
	assert.Equal(t, "order-123", result.OrderID)
	assert.Equal(t, "a@b.com", result.CustomerEmail)
	assert.Equal(t, 50.0, result.Amount)
	assert.Equal(t, "EUR", result.Currency)
	assert.Nil(t, result.Reason)
	assert.False(t, result.ProcessedAt.IsZero())
}

func TestDecide_AlwaysFail(t *testing.T) {
	g := &GatewaySimulator{
		SuccessRate: 0.0,
		Rand:        rand.New(rand.NewSource(1)),
		Sleep:       func(time.Duration) {},
	}

	result := g.Decide(context.Background(), testOrder())

	assert.Equal(t, contracts.EventPaymentFailed, result.EventType)
	require.NotNil(t, result.Reason)
	assert.Equal(t, "Card declined by mock gateway", *result.Reason)
}

func TestDecide_SimulatesLatency(t *testing.T) {
	var slept time.Duration
	g := &GatewaySimulator{
		Latency:     1200 * time.Millisecond,
		SuccessRate: 1.0,
		Rand:        rand.New(rand.NewSource(1)),
		Sleep:       func(d time.Duration) { slept = d },
	}

	g.Decide(context.Background(), testOrder())

	assert.Equal(t, 1200*time.Millisecond, slept)
}

func TestNewGatewaySimulator_Defaults(t *testing.T) {
	g := NewGatewaySimulator()

	assert.Equal(t, 1200*time.Millisecond, g.Latency)
	assert.InDelta(t, 0.85, g.SuccessRate, 0.001)
	assert.NotNil(t, g.Rand)
	assert.NotNil(t, g.Sleep)
}
