// Package repository holds the storage contracts for consultations, payments
// and reviews, with a gorm (postgres) backend and an in-memory backend.
package repository

import (
	"context"
	"time"

	"github.com/anjiri1684/medical_consult/models"
)

type Prescription struct {
	MedicineIDs     []string
	Precautions     string
	DoctorNotes     string
	ConsultationFee float64
}

type ConsultationRepository interface {
	Create(ctx context.Context, consultation *models.Consultation) error
	GetByID(ctx context.Context, id string) (*models.Consultation, error)

	// AssignDoctor sets the doctor and moves the consultation to ACCEPTED only
	// while it is PENDING or ACCEPTED and no doctor, or the same doctor, is
	// assigned. It reports false when the condition does not hold.
	AssignDoctor(ctx context.Context, id, doctorID string) (bool, error)

	// SavePrescription writes the prescription and moves the consultation to
	// PAYMENT_PENDING only while it is ACCEPTED or PAYMENT_PENDING, reporting
	// false otherwise.
	SavePrescription(ctx context.Context, id string, p Prescription) (bool, error)

	// MarkPaid unconditionally sets PAID. paymentID is recorded when non-empty.
	MarkPaid(ctx context.Context, id, paymentID string) error

	ListByPatient(ctx context.Context, patientID string) ([]models.Consultation, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Consultation, error)
	ListPendingUnassigned(ctx context.Context, specialization string) ([]models.Consultation, error)
	ListPendingForDoctor(ctx context.Context, specialization, doctorID string) ([]models.Consultation, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.PaymentRecord) error
	GetByOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentRecord, error)

	// MarkSucceeded moves the record to SUCCESS and stores the gateway payment
	// id. It reports false if the record was already SUCCESS, in which case the
	// stored row is returned unchanged.
	MarkSucceeded(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.PaymentRecord, bool, error)

	// ExpireStale moves CREATED records older than before to FAILED.
	ExpireStale(ctx context.Context, before time.Time) (int64, error)
}

type ReviewRepository interface {
	FindByConsultationAndPatient(ctx context.Context, consultationID, patientID string) (*models.DoctorReview, error)

	// Upsert inserts the review or, when one exists for the same
	// (consultation, patient) pair, updates its rating, text and updated_at.
	Upsert(ctx context.Context, review *models.DoctorReview) (*models.DoctorReview, error)

	ListByDoctor(ctx context.Context, doctorID string) ([]models.DoctorReview, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.DoctorReview, error)
	Summary(ctx context.Context, doctorID string) (count int64, average float64, err error)
}
