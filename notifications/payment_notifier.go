// Package notifications turns payment completions into user-facing messages
// and pushes them to clients waiting on the payment's reference id.
package notifications

import (
	"context"
	"fmt"

	"github.com/anjiri1684/medical_consult/events"
	"github.com/anjiri1684/medical_consult/models"
	"go.uber.org/zap"
)

type Pusher interface {
	Publish(referenceID string, payload interface{}) int
}

type PaymentNotice struct {
	ReferenceID string             `json:"referenceId"`
	PaymentType models.PaymentType `json:"paymentType"`
	Kind        string             `json:"kind"`
	Amount      float64            `json:"amount"`
	Message     string             `json:"message"`
}

// PaymentNotifier is the notification consumer group's handler.
type PaymentNotifier struct {
	push Pusher
	log  *zap.Logger
}

// NewPaymentNotifier returns a notifier. push may be nil, in which case notices
// are only logged.
func NewPaymentNotifier(push Pusher, log *zap.Logger) *PaymentNotifier {
	return &PaymentNotifier{push: push, log: log.Named("notifications")}
}

func ComposeNotice(event events.PaymentCompleted) PaymentNotice {
	notice := PaymentNotice{
		ReferenceID: event.ReferenceID,
		PaymentType: event.PaymentType,
		Amount:      event.Amount,
	}

	kind := event.PaymentType.Kind()
	notice.Kind = kind.String()
	switch kind {
	case models.PaymentKindConsultation:
		notice.Message = "Your consultation payment was received. Your prescription is now available."
	case models.PaymentKindSubscription:
		notice.Message = "Your subscription payment was received and your plan is now active."
	case models.PaymentKindOther:
		notice.Message = fmt.Sprintf("Your payment of %.2f was received.", event.Amount)
	}
	return notice
}

// Handle never asks for redelivery: an unreadable event is dropped with a
// warning and a notice nobody is listening for is simply logged.
func (n *PaymentNotifier) Handle(ctx context.Context, msg events.Message) error {
	event, err := events.DecodePaymentCompleted(msg.Payload)
	if err != nil {
		n.log.Warn("skipping notification for unreadable payment event", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}

	notice := ComposeNotice(*event)
	delivered := 0
	if n.push != nil {
		delivered = n.push.Publish(notice.ReferenceID, notice)
	}

	n.log.Info("payment notification sent",
		zap.String("reference_id", notice.ReferenceID),
		zap.String("kind", notice.Kind),
		zap.Int("listeners", delivered))
	return nil
}
