package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anjiri1684/medical_consult/models"
)

const PaymentSuccessTopic = "payment-success-topic"

var (
	ErrEmptyEvent     = errors.New("empty payment event")
	ErrMalformedEvent = errors.New("malformed payment event")
)

type PaymentCompleted struct {
	ReferenceID      string             `json:"referenceId"`
	PaymentType      models.PaymentType `json:"paymentType"`
	Amount           float64            `json:"amount"`
	GatewayPaymentID string             `json:"gatewayPaymentId"`
}

func PublishPaymentCompleted(ctx context.Context, p Publisher, event PaymentCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode payment event: %w", err)
	}
	return p.Publish(ctx, PaymentSuccessTopic, payload)
}

// DecodePaymentCompleted parses a message payload. A null or empty payload
// yields ErrEmptyEvent; anything unparsable or missing the reference id
// yields ErrMalformedEvent.
func DecodePaymentCompleted(payload []byte) (*PaymentCompleted, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyEvent
	}

	var event PaymentCompleted
	if err := json.Unmarshal(trimmed, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.ReferenceID == "" {
		return nil, fmt.Errorf("%w: missing referenceId", ErrMalformedEvent)
	}
	return &event, nil
}
