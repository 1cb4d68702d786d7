package services

import (
	"context"
	"errors"

	"github.com/anjiri1684/medical_consult/events"
	"github.com/anjiri1684/medical_consult/models"
	"go.uber.org/zap"
)

// LocalConsultationNotifier marks consultations paid in-process, for when the
// payment and consultation services share a binary.
type LocalConsultationNotifier struct {
	consultations *ConsultationService
}

func NewLocalConsultationNotifier(consultations *ConsultationService) *LocalConsultationNotifier {
	return &LocalConsultationNotifier{consultations: consultations}
}

func (n *LocalConsultationNotifier) MarkConsultationPaid(ctx context.Context, consultationID, paymentID string) error {
	_, err := n.consultations.MarkPaid(ctx, consultationID, paymentID)
	return err
}

// ConsultationReconciler consumes payment completions and marks the matching
// consultation paid. Redelivery is harmless since MarkPaid is idempotent.
type ConsultationReconciler struct {
	consultations *ConsultationService
	log           *zap.Logger
}

func NewConsultationReconciler(consultations *ConsultationService, log *zap.Logger) *ConsultationReconciler {
	return &ConsultationReconciler{consultations: consultations, log: log.Named("reconciler")}
}

// Handle is an events.Handler. Returning an error asks the broker to redeliver,
// so only transient storage failures are returned.
func (r *ConsultationReconciler) Handle(ctx context.Context, msg events.Message) error {
	event, err := events.DecodePaymentCompleted(msg.Payload)
	if err != nil {
		r.log.Warn("dropping unreadable payment event", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}

	switch event.PaymentType.Kind() {
	case models.PaymentKindConsultation:
	case models.PaymentKindSubscription, models.PaymentKindOther:
		return nil
	}

	_, err = r.consultations.MarkPaid(ctx, event.ReferenceID, event.GatewayPaymentID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidArgument):
		r.log.Warn("payment event for unknown consultation",
			zap.String("reference_id", event.ReferenceID), zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	default:
		return err
	}
}
