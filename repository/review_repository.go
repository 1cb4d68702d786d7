package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/medical_consult/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) FindByConsultationAndPatient(ctx context.Context, consultationID, patientID string) (*models.DoctorReview, error) {
	var review models.DoctorReview
	err := r.db.WithContext(ctx).
		Where("consultation_id = ? AND patient_id = ?", consultationID, patientID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("review for consultation %s: %w", consultationID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (r *reviewRepository) Upsert(ctx context.Context, review *models.DoctorReview) (*models.DoctorReview, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "consultation_id"}, {Name: "patient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"doctor_id", "rating", "review", "updated_at"}),
	}).Create(review).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	return r.FindByConsultationAndPatient(ctx, review.ConsultationID, review.PatientID)
}

func (r *reviewRepository) ListByDoctor(ctx context.Context, doctorID string) ([]models.DoctorReview, error) {
	return r.list(ctx, r.db.Where("doctor_id = ?", doctorID))
}

func (r *reviewRepository) ListByPatient(ctx context.Context, patientID string) ([]models.DoctorReview, error) {
	return r.list(ctx, r.db.Where("patient_id = ?", patientID))
}

func (r *reviewRepository) Summary(ctx context.Context, doctorID string) (int64, float64, error) {
	var result struct {
		Total int64
		Avg   float64
	}
	err := r.db.WithContext(ctx).Model(&models.DoctorReview{}).
		Where("doctor_id = ?", doctorID).
		Select("count(*) as total, coalesce(avg(rating), 0) as avg").
		Scan(&result).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to summarize reviews: %w", err)
	}
	return result.Total, result.Avg, nil
}

func (r *reviewRepository) list(ctx context.Context, query *gorm.DB) ([]models.DoctorReview, error) {
	var reviews []models.DoctorReview
	if err := query.WithContext(ctx).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
