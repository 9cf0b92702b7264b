package orderservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"order-flow/internal/ports"
	"order-flow/internal/shared/contracts"
	"order-flow/internal/shared/logger"
)

// ErrValidation marks client errors that must never reach the broker.
var ErrValidation = errors.New("validation failed")

// Service implements ports.OrderService: it validates a submission, builds an
// order.created event, and publishes it durably to the orders exchange.
type Service struct {
	orderExchange string
	pub           ports.EventPublisher
	logger        *logger.Logger

	now   func() time.Time
	newID func() string
}

// Ensure Service implements the interface at compile time.
var _ ports.OrderService = (*Service)(nil)

// New creates a new OrderService publishing to the given exchange.
func New(orderExchange string, pub ports.EventPublisher, logger *logger.Logger) *Service {
	return &Service{
		orderExchange: orderExchange,
		pub:           pub,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// Submit validates the command and publishes an order.created event. The
// publish is fire-and-forget with respect to downstream consumers: success
// means the broker accepted the message, nothing more.
func (service *Service) Submit(ctx context.Context, cmd ports.SubmitCommand) (contracts.OrderCreatedEvent, error) {
	cmd.CustomerEmail = strings.TrimSpace(cmd.CustomerEmail)
	if cmd.CustomerEmail == "" {
		return contracts.OrderCreatedEvent{}, fmt.Errorf("%w: customer_email is required", ErrValidation)
	}
	if cmd.Amount == nil {
		return contracts.OrderCreatedEvent{}, fmt.Errorf("%w: amount is required", ErrValidation)
	}
	if *cmd.Amount < 0 {
		return contracts.OrderCreatedEvent{}, fmt.Errorf("%w: amount must be non-negative", ErrValidation)
	}

	currency := strings.TrimSpace(cmd.Currency)
	if currency == "" {
		currency = "USD"
	}

	event := contracts.OrderCreatedEvent{
		EventType:     contracts.EventOrderCreated,
		OrderID:       service.newID(),
		CustomerEmail: cmd.CustomerEmail,
		Amount:        *cmd.Amount,
		Currency:      currency,
		CreatedAt:     service.now(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return contracts.OrderCreatedEvent{}, fmt.Errorf("marshal order event: %w", err)
	}

	if err := service.pub.Publish(service.orderExchange, contracts.EventOrderCreated, body); err != nil {
		service.logger.Error(ctx, "order_publish_failed", "Failed to publish order.created", err)
		return contracts.OrderCreatedEvent{}, fmt.Errorf("publish order event: %w", err)
	}

	service.logger.Info(ctx, "order_published", "Published order.created", map[string]any{
		"order_id": event.OrderID,
		"amount":   event.Amount,
		"currency": event.Currency,
	})

	return event, nil
}
