package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anjiri1684/medical_consult/models"
	"github.com/anjiri1684/medical_consult/repository"
	"go.uber.org/zap"
)

type ReviewInput struct {
	DoctorID       string `json:"doctor_id" validate:"required"`
	PatientID      string `json:"patient_id" validate:"required"`
	ConsultationID string `json:"consultation_id" validate:"required"`
	Rating         int    `json:"rating" validate:"min=1,max=5"`
	Review         string `json:"review"`
}

type ReviewService struct {
	reviews       repository.ReviewRepository
	consultations repository.ConsultationRepository
	now           func() time.Time
	log           *zap.Logger
}

func NewReviewService(reviews repository.ReviewRepository, consultations repository.ConsultationRepository, log *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, consultations: consultations, now: time.Now, log: log.Named("reviews")}
}

// UpsertReview stores one review per (consultation, patient). Only the
// consultation's own patient may review its assigned doctor, and only once a
// prescription has been written. A second submission replaces the rating and
// text of the first.
func (s *ReviewService) UpsertReview(ctx context.Context, in ReviewInput) (*models.DoctorReview, error) {
	in.DoctorID = strings.TrimSpace(in.DoctorID)
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.ConsultationID = strings.TrimSpace(in.ConsultationID)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	consultation, err := s.consultations.GetByID(ctx, in.ConsultationID)
	if err != nil {
		return nil, err
	}
	if consultation.PatientID != in.PatientID {
		return nil, fmt.Errorf("%w: consultation %s belongs to another patient", models.ErrForbidden, in.ConsultationID)
	}
	if !consultation.AssignedTo(in.DoctorID) {
		return nil, fmt.Errorf("%w: doctor %s did not handle consultation %s", models.ErrForbidden, in.DoctorID, in.ConsultationID)
	}
	if !consultation.Status.Prescribed() {
		return nil, fmt.Errorf("%w: consultation %s has not been prescribed yet", models.ErrForbidden, in.ConsultationID)
	}

	now := s.now()
	review := &models.DoctorReview{
		DoctorID:       in.DoctorID,
		PatientID:      in.PatientID,
		ConsultationID: in.ConsultationID,
		Rating:         in.Rating,
		Review:         strings.TrimSpace(in.Review),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	existing, err := s.reviews.FindByConsultationAndPatient(ctx, in.ConsultationID, in.PatientID)
	switch {
	case err == nil:
		review.ID = existing.ID
		review.CreatedAt = existing.CreatedAt
	case errors.Is(err, models.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	saved, err := s.reviews.Upsert(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	s.log.Info("review saved",
		zap.String("consultation_id", saved.ConsultationID),
		zap.String("doctor_id", saved.DoctorID),
		zap.Int("rating", saved.Rating),
		zap.Bool("updated", existing != nil))
	return saved, nil
}

func (s *ReviewService) ListByDoctor(ctx context.Context, doctorID string) ([]models.DoctorReview, error) {
	return s.reviews.ListByDoctor(ctx, strings.TrimSpace(doctorID))
}

func (s *ReviewService) ListByPatient(ctx context.Context, patientID string) ([]models.DoctorReview, error) {
	return s.reviews.ListByPatient(ctx, strings.TrimSpace(patientID))
}

// RatingSummary returns the review count and mean rating rounded to one
// decimal. A doctor without reviews gets 0 and 0.0.
func (s *ReviewService) RatingSummary(ctx context.Context, doctorID string) (*models.DoctorRatingSummary, error) {
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return nil, fmt.Errorf("%w: doctor id is required", models.ErrInvalidArgument)
	}

	count, average, err := s.reviews.Summary(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise reviews: %w", err)
	}
	return &models.DoctorRatingSummary{
		DoctorID:      doctorID,
		TotalReviews:  count,
		AverageRating: math.Round(average*10) / 10,
	}, nil
}
