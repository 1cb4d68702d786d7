package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/medical_consult/models"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.PaymentRecord) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentRecord, error) {
	var payment models.PaymentRecord
	err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("payment for order %s: %w", gatewayOrderID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) MarkSucceeded(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.PaymentRecord, bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PaymentRecord{}).
		Where("gateway_order_id = ? AND status <> ?", gatewayOrderID, models.PaymentSuccess).
		Updates(map[string]interface{}{
			"gateway_payment_id": gatewayPaymentID,
			"status":             models.PaymentSuccess,
		})
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to mark payment succeeded: %w", result.Error)
	}

	payment, err := r.GetByOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, false, err
	}
	return payment, result.RowsAffected > 0, nil
}

func (r *paymentRepository) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.PaymentRecord{}).
		Where("status = ? AND created_at < ?", models.PaymentCreated, before).
		Update("status", models.PaymentFailed)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire stale payments: %w", result.Error)
	}
	return result.RowsAffected, nil
}
