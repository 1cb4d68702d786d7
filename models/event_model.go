package models

import "time"

// EventMessage is one entry of a topic log kept by the durable broker.
type EventMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement;index:idx_event_topic_id,priority:2"`
	Topic     string    `gorm:"size:128;not null;index:idx_event_topic_id,priority:1"`
	MessageID string    `gorm:"size:36;not null;uniqueIndex"`
	Payload   []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

// ConsumerOffset is the last message id a consumer group has committed on a topic.
type ConsumerOffset struct {
	Topic     string `gorm:"size:128;primaryKey"`
	GroupID   string `gorm:"size:128;primaryKey"`
	LastID    uint64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
