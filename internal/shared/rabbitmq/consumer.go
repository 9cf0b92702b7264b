package rabbitmq

import (
	"context"
	"errors"
	"time"

	"order-flow/internal/shared/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Action is the structured result a handler returns for one delivery.
type Action int

const (
	// Ack acknowledges the delivery; the broker removes it from the queue.
	Ack Action = iota
	// Requeue rejects the delivery and asks the broker to redeliver it.
	Requeue
	// Reject rejects the delivery without redelivery (undecodable payloads).
	Reject
)

// HandlerFunc processes a single delivery and reports what to do with it.
type HandlerFunc func(ctx context.Context, d amqp.Delivery) Action

// ConsumeLoop blocks, repeatedly (re)creating a consumer channel on the given
// queue and dispatching deliveries to the handler. The handler's Action is
// applied after it returns, so a handler that publishes a follow-up event is
// guaranteed to have published before its trigger is acknowledged. Returns
// when ctx is cancelled.
func ConsumeLoop(ctx context.Context, client *Client, queue, consumerTag string, prefetch int, handler HandlerFunc, log *logger.Logger) {
	const (
		retryBaseDelay = time.Second
		retryMaxDelay  = 30 * time.Second
	)

	backoff := retryBaseDelay
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// acquire a fresh channel with QoS
		ch, err := client.NewConsumerChannel(prefetch)
		if err != nil {
			log.Error(ctx, "rabbitmq_channel_open_failed", "Failed to open consumer channel", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, retryMaxDelay)
			continue
		}

		// reset backoff on successful channel creation
		backoff = retryBaseDelay

		deliveries, err := ch.Consume(queue, consumerTag, false, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			log.Error(ctx, "rabbitmq_consume_failed", "Failed to start consuming", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, retryMaxDelay)
			continue
		}

		log.Info(ctx, "consume_started", "Waiting for messages", map[string]any{
			"queue":    queue,
			"prefetch": prefetch,
		})

		// watch for channel close to trigger a re-open
		closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	consumption:
		for {
			select {
			case <-ctx.Done():
				// stop consuming; in-flight unacked messages get requeued by the broker
				_ = ch.Cancel(consumerTag, false)
				_ = ch.Close()
				return

			case amqpErr := <-closed:
				if amqpErr != nil {
					log.Error(ctx, "rabbitmq_channel_closed", "Consumer channel closed", amqpErr)
				} else {
					log.Error(ctx, "rabbitmq_channel_closed", "Consumer channel closed", errors.New("unknown channel close"))
				}
				break consumption

			case d, ok := <-deliveries:
				if !ok {
					log.Error(ctx, "rabbitmq_deliveries_closed", "Deliveries channel closed", errors.New("deliveries channel closed"))
					_ = ch.Close()
					break consumption
				}

				applyAction(ctx, d, handler(ctx, d), log)
			}
		}

		// small delay before attempting to recreate channel (avoid hot loop)
		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, retryMaxDelay)
	}
}

// applyAction maps the handler's verdict onto broker acknowledgment calls.
func applyAction(ctx context.Context, d amqp.Delivery, action Action, log *logger.Logger) {
	var err error
	switch action {
	case Ack:
		err = d.Ack(false)
	case Requeue:
		err = d.Nack(false, true)
	case Reject:
		err = d.Nack(false, false)
	}
	if err != nil {
		log.Error(ctx, "rabbitmq_ack_failed", "Failed to settle delivery", err)
	}
}

// sleepWithContext sleeps for the given duration or returns early if ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff calculates the next backoff duration with exponential growth capped at max.
func nextBackoff(curr, cap time.Duration) time.Duration {
	n := curr * 2
	if n > cap {
		return cap
	}
	return n
}
