package notificationservice

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-flow/internal/shared/contracts"
	"order-flow/internal/shared/logger"
	"order-flow/internal/shared/rabbitmq"
)

func newTestDispatcher() (*Dispatcher, *bytes.Buffer) {
	var buf bytes.Buffer
	d := NewDispatcher(logger.NewLogger("notification-test"))
	d.out = &buf
	return d, &buf
}

func delivery(t *testing.T, v any) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return amqp.Delivery{Body: body}
}

func TestHandleOrderEvent(t *testing.T) {
	dispatcher, out := newTestDispatcher()

	action := dispatcher.HandleOrderEvent(context.Background(), delivery(t, contracts.OrderCreatedEvent{
		EventType:     contracts.EventOrderCreated,
		OrderID:       "order-123",
		CustomerEmail: "a@b.com",
		Amount:        50,
		Currency:      "USD",
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}))

	assert.Equal(t, rabbitmq.Ack, action)
	assert.Equal(t, "EMAIL => To: a@b.com | Subject: Order received | Order ID: order-123\n", out.String())
}

func TestHandlePaymentEvent_Success(t *testing.T) {
	dispatcher, out := newTestDispatcher()

	action := dispatcher.HandlePaymentEvent(context.Background(), delivery(t, contracts.PaymentResultEvent{
		EventType:     contracts.EventPaymentSuccess,
		OrderID:       "order-123",
		CustomerEmail: "a@b.com",
	}))

	assert.Equal(t, rabbitmq.Ack, action)
	assert.Equal(t, "EMAIL => To: a@b.com | Subject: Payment successful | Order ID: order-123\n", out.String())
}

func TestHandlePaymentEvent_Failed(t *testing.T) {
	dispatcher, out := newTestDispatcher()

	reason := "Card declined by mock gateway"
	action := dispatcher.HandlePaymentEvent(context.Background(), delivery(t, contracts.PaymentResultEvent{
		EventType:     contracts.EventPaymentFailed,
		OrderID:       "order-123",
		CustomerEmail: "a@b.com",
		Reason:        &reason,
	}))

	assert.Equal(t, rabbitmq.Ack, action)
	assert.Contains(t, out.String(), "Subject: Payment failed")
	assert.Contains(t, out.String(), "Reason: Card declined by mock gateway")
}

func TestHandleOrderEvent_MalformedPayload(t *testing.T) {
	dispatcher, out := newTestDispatcher()

	action := dispatcher.HandleOrderEvent(context.Background(), amqp.Delivery{Body: []byte("{not json")})

	assert.Equal(t, rabbitmq.Reject, action)
	assert.Empty(t, out.String(), "no notification for an undecodable event")
}

func TestHandlePaymentEvent_MalformedPayload(t *testing.T) {
	dispatcher, out := newTestDispatcher()

	action := dispatcher.HandlePaymentEvent(context.Background(), amqp.Delivery{Body: []byte("{not json")})

	assert.Equal(t, rabbitmq.Reject, action)
	assert.Empty(t, out.String())
}
