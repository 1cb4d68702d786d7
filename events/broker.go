// Package events is the topic-addressed publish/subscribe channel that carries
// payment completions from the payment orchestrator to independent consumer
// groups. Delivery is at-least-once: a group's position only advances after
// its handler returns, so handlers must be idempotent.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var ErrBrokerClosed = errors.New("broker closed")

type Message struct {
	ID      string
	Topic   string
	Payload []byte
	Attempt int
}

type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Broker delivers every message on a topic to every subscribed group. Each
// group keeps its own position; groups never affect one another.
type Broker interface {
	Publisher
	// Subscribe starts consuming topic for group in the background and returns
	// once the consumer is registered. Consumption stops when ctx is done or
	// the broker is closed.
	Subscribe(ctx context.Context, topic, group string, handler Handler) error
	Close() error
}

// DeliveryPolicy bounds redelivery of a message whose handler fails. After
// MaxAttempts the message is logged as dead-lettered and the group moves on.
type DeliveryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultDeliveryPolicy() DeliveryPolicy {
	return DeliveryPolicy{MaxAttempts: 5, Backoff: 500 * time.Millisecond}
}

// deliver runs handler until it succeeds or the policy gives up. It returns
// false only when ctx ended first, meaning the message must not be committed.
func deliver(ctx context.Context, log *zap.Logger, policy DeliveryPolicy, group string, handler Handler, msg Message) bool {
	for attempt := 1; ; attempt++ {
		msg.Attempt = attempt
		err := safeHandle(ctx, handler, msg)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		fields := []zap.Field{
			zap.String("topic", msg.Topic),
			zap.String("group", group),
			zap.String("message_id", msg.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		}
		if attempt >= policy.MaxAttempts {
			log.Error("event handler gave up, message dead-lettered", fields...)
			return true
		}
		log.Warn("event handler failed, will retry", fields...)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(policy.Backoff * time.Duration(attempt)):
		}
	}
}

func safeHandle(ctx context.Context, handler Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, msg)
}
