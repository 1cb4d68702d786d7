package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/medical_consult/events"
	"github.com/anjiri1684/medical_consult/jobs"
	"github.com/anjiri1684/medical_consult/models"
	"github.com/anjiri1684/medical_consult/payments"
	"github.com/anjiri1684/medical_consult/repository"
	"go.uber.org/zap"
)

type CreateOrderInput struct {
	ReferenceID string             `json:"referenceId" validate:"required"`
	PaymentType models.PaymentType `json:"paymentType" validate:"required"`
	Amount      float64            `json:"amount" validate:"gt=0"`
}

type VerifyPaymentInput struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// ConsultationNotifier tells the consultation owner a payment for it succeeded.
type ConsultationNotifier interface {
	MarkConsultationPaid(ctx context.Context, consultationID, paymentID string) error
}

// BackgroundRunner runs detached best-effort work. jobs.Dispatcher satisfies it.
type BackgroundRunner interface {
	Go(name string, task jobs.Task, fields ...zap.Field) bool
}

type PaymentConfig struct {
	Currency       string
	GatewayTimeout time.Duration
}

// PaymentService creates gateway orders and verifies their callbacks. Once a
// payment is recorded as SUCCESS the completion event and, for consultation
// payments, the direct notification run in the background; their failures are
// logged and never reach the caller.
type PaymentService struct {
	gateway    payments.Gateway
	verifier   *payments.SignatureVerifier
	ledger     repository.PaymentRepository
	publisher  events.Publisher
	notifier   ConsultationNotifier
	background BackgroundRunner
	cfg        PaymentConfig
	log        *zap.Logger
}

// NewPaymentService wires the orchestrator. notifier may be nil, leaving the
// event channel as the only path to the consultation owner.
func NewPaymentService(
	gateway payments.Gateway,
	verifier *payments.SignatureVerifier,
	ledger repository.PaymentRepository,
	publisher events.Publisher,
	notifier ConsultationNotifier,
	background BackgroundRunner,
	cfg PaymentConfig,
	log *zap.Logger,
) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 3 * time.Second
	}
	return &PaymentService{
		gateway:    gateway,
		verifier:   verifier,
		ledger:     ledger,
		publisher:  publisher,
		notifier:   notifier,
		background: background,
		cfg:        cfg,
		log:        log.Named("payments"),
	}
}

// CreateOrder mints a gateway order for the amount in minor units and records
// it as CREATED. Nothing is stored when the gateway call fails.
func (s *PaymentService) CreateOrder(ctx context.Context, in CreateOrderInput) (*payments.Order, error) {
	in.ReferenceID = strings.TrimSpace(in.ReferenceID)
	in.PaymentType = models.PaymentType(strings.TrimSpace(string(in.PaymentType)))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	order, err := s.gateway.CreateOrder(gatewayCtx, payments.ToMinorUnits(in.Amount), s.cfg.Currency, in.ReferenceID)
	if err != nil {
		if !errors.Is(err, models.ErrGateway) {
			err = fmt.Errorf("%w: %v", models.ErrGateway, err)
		}
		s.log.Error("gateway order creation failed", zap.String("reference_id", in.ReferenceID), zap.Error(err))
		return nil, err
	}

	record := &models.PaymentRecord{
		ReferenceID:    in.ReferenceID,
		PaymentType:    in.PaymentType,
		GatewayOrderID: order.ID,
		Amount:         in.Amount,
		Currency:       s.cfg.Currency,
		Status:         models.PaymentCreated,
	}
	if err := s.ledger.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record order %s: %w", order.ID, err)
	}

	s.log.Info("payment order created",
		zap.String("reference_id", record.ReferenceID),
		zap.String("order_id", record.GatewayOrderID),
		zap.String("payment_type", string(record.PaymentType)),
		zap.Float64("amount", record.Amount))
	return order, nil
}

// VerifyPayment authenticates a gateway callback and records the payment as
// SUCCESS. It returns as soon as the ledger write completes.
func (s *PaymentService) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (*models.PaymentRecord, error) {
	in.GatewayOrderID = strings.TrimSpace(in.GatewayOrderID)
	in.GatewayPaymentID = strings.TrimSpace(in.GatewayPaymentID)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.verifier.Verify(in.GatewayOrderID, in.GatewayPaymentID, in.Signature); err != nil {
		s.log.Warn("payment signature rejected", zap.String("order_id", in.GatewayOrderID))
		return nil, fmt.Errorf("order %s: %w", in.GatewayOrderID, err)
	}

	record, transitioned, err := s.ledger.MarkSucceeded(ctx, in.GatewayOrderID, in.GatewayPaymentID)
	if err != nil {
		return nil, err
	}

	if transitioned {
		s.log.Info("payment verified",
			zap.String("reference_id", record.ReferenceID),
			zap.String("order_id", record.GatewayOrderID),
			zap.String("payment_id", in.GatewayPaymentID))
	} else {
		s.log.Info("payment already verified, re-sending notifications",
			zap.String("reference_id", record.ReferenceID),
			zap.String("order_id", record.GatewayOrderID))
	}

	s.propagate(record)
	return record, nil
}

func (s *PaymentService) propagate(record *models.PaymentRecord) {
	event := events.PaymentCompleted{
		ReferenceID: record.ReferenceID,
		PaymentType: record.PaymentType,
		Amount:      record.Amount,
	}
	if record.GatewayPaymentID != nil {
		event.GatewayPaymentID = *record.GatewayPaymentID
	}
	fields := []zap.Field{zap.String("reference_id", event.ReferenceID), zap.String("order_id", record.GatewayOrderID)}

	s.background.Go("publish-payment-completed", func(ctx context.Context) error {
		return events.PublishPaymentCompleted(ctx, s.publisher, event)
	}, fields...)

	switch event.PaymentType.Kind() {
	case models.PaymentKindConsultation:
		if s.notifier == nil {
			return
		}
		s.background.Go("notify-consultation-paid", func(ctx context.Context) error {
			return s.notifier.MarkConsultationPaid(ctx, event.ReferenceID, event.GatewayPaymentID)
		}, fields...)
	case models.PaymentKindSubscription, models.PaymentKindOther:
	}
}
