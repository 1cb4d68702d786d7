package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/medical_consult/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type consultationRepository struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) ConsultationRepository {
	return &consultationRepository{db: db}
}

func (r *consultationRepository) Create(ctx context.Context, consultation *models.Consultation) error {
	if err := r.db.WithContext(ctx).Create(consultation).Error; err != nil {
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) GetByID(ctx context.Context, id string) (*models.Consultation, error) {
	var consultation models.Consultation
	err := r.db.WithContext(ctx).First(&consultation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("consultation %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &consultation, nil
}

func (r *consultationRepository) AssignDoctor(ctx context.Context, id, doctorID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Consultation{}).
		Where("id = ? AND status IN ? AND (doctor_id IS NULL OR doctor_id = '' OR doctor_id = ?)",
			id, []models.ConsultationStatus{models.ConsultationPending, models.ConsultationAccepted}, doctorID).
		Updates(map[string]interface{}{
			"doctor_id": doctorID,
			"status":    models.ConsultationAccepted,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to assign doctor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, r.ensureExists(ctx, id)
	}
	return true, nil
}

func (r *consultationRepository) SavePrescription(ctx context.Context, id string, p Prescription) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Consultation{}).
		Where("id = ? AND status IN ?", id, []models.ConsultationStatus{models.ConsultationAccepted, models.ConsultationPaymentPending}).
		Updates(map[string]interface{}{
			"medicine_ids":     pq.StringArray(p.MedicineIDs),
			"precautions":      p.Precautions,
			"doctor_notes":     p.DoctorNotes,
			"consultation_fee": p.ConsultationFee,
			"status":           models.ConsultationPaymentPending,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to save prescription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, r.ensureExists(ctx, id)
	}
	return true, nil
}

func (r *consultationRepository) MarkPaid(ctx context.Context, id, paymentID string) error {
	updates := map[string]interface{}{"status": models.ConsultationPaid}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}

	result := r.db.WithContext(ctx).Model(&models.Consultation{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to mark consultation paid: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.ensureExists(ctx, id)
	}
	return nil
}

func (r *consultationRepository) ListByPatient(ctx context.Context, patientID string) ([]models.Consultation, error) {
	return r.list(ctx, r.db.Where("patient_id = ?", patientID))
}

func (r *consultationRepository) ListByDoctor(ctx context.Context, doctorID string) ([]models.Consultation, error) {
	return r.list(ctx, r.db.Where("doctor_id = ?", doctorID))
}

func (r *consultationRepository) ListPendingUnassigned(ctx context.Context, specialization string) ([]models.Consultation, error) {
	return r.list(ctx, r.db.Where("specialization = ? AND status = ? AND (doctor_id IS NULL OR doctor_id = '')",
		specialization, models.ConsultationPending))
}

func (r *consultationRepository) ListPendingForDoctor(ctx context.Context, specialization, doctorID string) ([]models.Consultation, error) {
	return r.list(ctx, r.db.Where("specialization = ? AND status = ? AND doctor_id = ?",
		specialization, models.ConsultationPending, doctorID))
}

func (r *consultationRepository) list(ctx context.Context, query *gorm.DB) ([]models.Consultation, error) {
	var consultations []models.Consultation
	if err := query.WithContext(ctx).Order("created_at DESC").Find(&consultations).Error; err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

// ensureExists turns a zero-row conditional update into ErrNotFound when the
// row is missing, and nil when the condition simply did not hold.
func (r *consultationRepository) ensureExists(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Consultation{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check consultation: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("consultation %s: %w", id, models.ErrNotFound)
	}
	return nil
}
