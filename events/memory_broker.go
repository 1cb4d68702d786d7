package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryBroker keeps each topic as an append-only log in process memory. It
// is not durable across restarts; use it for local development and tests.
type MemoryBroker struct {
	mu     sync.Mutex
	topics map[string]*memoryTopic
	closed bool

	policy  DeliveryPolicy
	log     *zap.Logger
	wg      sync.WaitGroup
	cancels []context.CancelFunc
}

type memoryTopic struct {
	messages []Message
	// notify is closed and replaced on every publish to wake waiting groups
	notify chan struct{}
	groups map[string]bool
}

func NewMemoryBroker(policy DeliveryPolicy, log *zap.Logger) *MemoryBroker {
	return &MemoryBroker{
		topics: make(map[string]*memoryTopic),
		policy: policy,
		log:    log.Named("memory-broker"),
	}
}

func (b *MemoryBroker) topic(name string) *memoryTopic {
	t, ok := b.topics[name]
	if !ok {
		t = &memoryTopic{notify: make(chan struct{}), groups: make(map[string]bool)}
		b.topics[name] = t
	}
	return t
}

func (b *MemoryBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}

	t := b.topic(topic)
	msg := Message{ID: uuid.NewString(), Topic: topic, Payload: append([]byte(nil), payload...)}
	t.messages = append(t.messages, msg)
	close(t.notify)
	t.notify = make(chan struct{})

	b.log.Debug("message published", zap.String("topic", topic), zap.String("message_id", msg.ID))
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}

	t := b.topic(topic)
	if t.groups[group] {
		return fmt.Errorf("group %q already consumes topic %q", group, topic)
	}
	t.groups[group] = true

	consumerCtx, cancel := context.WithCancel(ctx)
	b.cancels = append(b.cancels, cancel)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(consumerCtx, t, topic, group, handler)
	}()

	b.log.Info("consumer started", zap.String("topic", topic), zap.String("group", group))
	return nil
}

func (b *MemoryBroker) consume(ctx context.Context, t *memoryTopic, topic, group string, handler Handler) {
	offset := 0
	for {
		b.mu.Lock()
		if offset < len(t.messages) {
			msg := t.messages[offset]
			b.mu.Unlock()

			if !deliver(ctx, b.log, b.policy, group, handler, msg) {
				return
			}
			offset++
			continue
		}
		wait := t.notify
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			b.log.Info("consumer stopped", zap.String("topic", topic), zap.String("group", group))
			return
		case <-wait:
		}
	}
}

// Close stops every consumer and waits for in-flight handlers to return.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancels := b.cancels
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	b.wg.Wait()
	return nil
}
