package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anjiri1684/medical_consult/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBroker stores topic logs in the event_messages table and each group's
// committed position in consumer_offsets. Publishes to one topic are
// serialized with a transaction-scoped advisory lock, so a group never commits
// past an id whose insert is still in flight. A group's offset row is locked with
// FOR UPDATE SKIP LOCKED while a batch is processed, so only one instance of
// a group drains the topic at a time and the offset is committed after the
// handlers return.
type GormBroker struct {
	db           *gorm.DB
	policy       DeliveryPolicy
	pollInterval time.Duration
	batchSize    int
	log          *zap.Logger

	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	cancels []context.CancelFunc
}

func NewGormBroker(db *gorm.DB, policy DeliveryPolicy, pollInterval time.Duration, batchSize int, log *zap.Logger) *GormBroker {
	if batchSize < 1 {
		batchSize = 50
	}
	return &GormBroker{
		db:           db,
		policy:       policy,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		log:          log.Named("gorm-broker"),
	}
}

func (b *GormBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	msg := models.EventMessage{
		Topic:     topic,
		MessageID: uuid.NewString(),
		Payload:   payload,
	}
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Groups track a high-water mark on id, so ids on a topic must become
		// visible in order. The lock is held until commit, and the id is taken
		// after it is acquired.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", topic).Error; err != nil {
			return err
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (b *GormBroker) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}

	offset := models.ConsumerOffset{Topic: topic, GroupID: group}
	if err := b.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&offset).Error; err != nil {
		return fmt.Errorf("failed to register group %s on %s: %w", group, topic, err)
	}

	consumerCtx, cancel := context.WithCancel(ctx)
	b.cancels = append(b.cancels, cancel)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(consumerCtx, topic, group, handler)
	}()

	b.log.Info("consumer started", zap.String("topic", topic), zap.String("group", group))
	return nil
}

func (b *GormBroker) consume(ctx context.Context, topic, group string, handler Handler) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		for {
			n, err := b.poll(ctx, topic, group, handler)
			if err != nil && ctx.Err() == nil {
				b.log.Error("event poll failed", zap.String("topic", topic), zap.String("group", group), zap.Error(err))
			}
			if err != nil || n < b.batchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			b.log.Info("consumer stopped", zap.String("topic", topic), zap.String("group", group))
			return
		case <-ticker.C:
		}
	}
}

// poll processes at most one batch and returns how many messages it committed.
func (b *GormBroker) poll(ctx context.Context, topic, group string, handler Handler) (int, error) {
	// the transaction outlives ctx so a shutdown mid-batch still commits the
	// progress made; handlers themselves observe ctx
	tx := b.db.WithContext(context.WithoutCancel(ctx)).Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	defer tx.Rollback()

	var offset models.ConsumerOffset
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("topic = ? AND group_id = ?", topic, group).
		First(&offset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// another instance of this group holds the lock
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var batch []models.EventMessage
	if err := tx.Where("topic = ? AND id > ?", topic, offset.LastID).
		Order("id ASC").Limit(b.batchSize).
		Find(&batch).Error; err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	committed := 0
	lastID := offset.LastID
	for _, row := range batch {
		msg := Message{ID: row.MessageID, Topic: row.Topic, Payload: row.Payload}
		if !deliver(ctx, b.log, b.policy, group, handler, msg) {
			break
		}
		lastID = row.ID
		committed++
	}
	if committed == 0 {
		return 0, ctx.Err()
	}

	if err := tx.Model(&models.ConsumerOffset{}).
		Where("topic = ? AND group_id = ?", topic, group).
		Updates(map[string]interface{}{"last_id": lastID, "updated_at": time.Now()}).Error; err != nil {
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	b.log.Debug("offset committed", zap.String("topic", topic), zap.String("group", group),
		zap.Uint64("last_id", lastID))
	return committed, nil
}

// Purge deletes messages older than before that every group on their topic
// has already committed.
func (b *GormBroker) Purge(ctx context.Context, before time.Time) (int64, error) {
	result := b.db.WithContext(ctx).
		Where("created_at < ? AND id <= (SELECT COALESCE(MIN(last_id), 0) FROM consumer_offsets WHERE consumer_offsets.topic = event_messages.topic)", before).
		Delete(&models.EventMessage{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge event messages: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Close stops every consumer and waits for in-flight batches to finish.
func (b *GormBroker) Close() error {
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
