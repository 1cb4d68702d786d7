package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorReview struct {
	ID             string `gorm:"type:varchar(36);primary_key" json:"id"`
	DoctorID       string `gorm:"size:64;not null;index" json:"doctor_id"`
	PatientID      string `gorm:"size:64;not null;index;uniqueIndex:ux_review_consultation_patient,priority:2" json:"patient_id"`
	ConsultationID string `gorm:"size:36;not null;uniqueIndex:ux_review_consultation_patient,priority:1" json:"consultation_id"`
	Rating         int    `gorm:"not null" json:"rating"`
	Review         string `gorm:"type:text;not null;default:''" json:"review"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *DoctorReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type DoctorRatingSummary struct {
	DoctorID      string  `json:"doctor_id"`
	TotalReviews  int64   `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
}
