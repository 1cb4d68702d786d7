package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ConsultationStatus string

const (
	ConsultationPending        ConsultationStatus = "PENDING"
	ConsultationAccepted       ConsultationStatus = "ACCEPTED"
	ConsultationPaymentPending ConsultationStatus = "PAYMENT_PENDING"
	ConsultationPaid           ConsultationStatus = "PAID"
	ConsultationCompleted      ConsultationStatus = "COMPLETED"
)

// Prescribed reports whether the consultation has reached the prescription step.
func (s ConsultationStatus) Prescribed() bool {
	switch s {
	case ConsultationPaymentPending, ConsultationPaid, ConsultationCompleted:
		return true
	}
	return false
}

// Prescribable reports whether a prescription may be written or revised:
// a doctor has accepted and payment has not been recorded yet.
func (s ConsultationStatus) Prescribable() bool {
	return s == ConsultationAccepted || s == ConsultationPaymentPending
}

// Settled reports whether payment has been recorded for the consultation.
func (s ConsultationStatus) Settled() bool {
	return s == ConsultationPaid || s == ConsultationCompleted
}

type Consultation struct {
	ID              string             `gorm:"type:varchar(36);primary_key" json:"id"`
	PatientID       string             `gorm:"size:64;not null;index" json:"patient_id"`
	DoctorID        *string            `gorm:"size:64;index" json:"doctor_id"`
	Specialization  string             `gorm:"size:100;not null;index" json:"specialization"`
	Description     string             `gorm:"type:text" json:"description"`
	MedicineIDs     pq.StringArray     `gorm:"type:text[]" json:"medicine_ids"`
	Precautions     *string            `gorm:"type:text" json:"precautions"`
	DoctorNotes     *string            `gorm:"type:text" json:"doctor_notes"`
	Status          ConsultationStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ConsultationFee *float64           `gorm:"type:numeric(10,2)" json:"consultation_fee"`
	PaymentID       *string            `gorm:"size:255" json:"payment_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Consultation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// AssignedTo reports whether doctorID is the consultation's assigned doctor.
func (c *Consultation) AssignedTo(doctorID string) bool {
	return c.DoctorID != nil && *c.DoctorID != "" && *c.DoctorID == doctorID
}

// HasDoctor reports whether any doctor is assigned.
func (c *Consultation) HasDoctor() bool {
	return c.DoctorID != nil && *c.DoctorID != ""
}

// Redacted returns a copy with the prescription hidden unless the consultation
// has been paid for. The stored row keeps the prescription.
func (c Consultation) Redacted() Consultation {
	if c.Status.Settled() {
		return c
	}
	c.MedicineIDs = nil
	c.Precautions = nil
	c.DoctorNotes = nil
	return c
}
