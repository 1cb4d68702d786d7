package models

import (
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "CREATED"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// PaymentType is the billable category a payment was raised for, as supplied
// by the caller. Use Kind to branch on it.
type PaymentType string

const (
	PaymentTypeConsultation PaymentType = "CONSULTATION"
	PaymentTypeSubscription PaymentType = "SUBSCRIPTION"
)

type PaymentKind int

const (
	PaymentKindOther PaymentKind = iota
	PaymentKindConsultation
	PaymentKindSubscription
)

func (k PaymentKind) String() string {
	switch k {
	case PaymentKindConsultation:
		return "CONSULTATION"
	case PaymentKindSubscription:
		return "SUBSCRIPTION"
	case PaymentKindOther:
		return "OTHER"
	}
	return "OTHER"
}

func (t PaymentType) Kind() PaymentKind {
	switch PaymentType(strings.ToUpper(strings.TrimSpace(string(t)))) {
	case PaymentTypeConsultation:
		return PaymentKindConsultation
	case PaymentTypeSubscription:
		return PaymentKindSubscription
	default:
		return PaymentKindOther
	}
}

type PaymentRecord struct {
	ID               uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferenceID      string        `gorm:"size:64;not null;index" json:"reference_id"`
	PaymentType      PaymentType   `gorm:"size:32;not null" json:"payment_type"`
	GatewayOrderID   string        `gorm:"size:255;not null;uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID *string       `gorm:"size:255" json:"gateway_payment_id"`
	Amount           float64       `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency         string        `gorm:"size:3" json:"currency"`
	Status           PaymentStatus `gorm:"size:20;not null;default:'CREATED';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PaymentRecord) TableName() string { return "payments" }
