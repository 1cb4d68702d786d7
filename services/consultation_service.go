package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anjiri1684/medical_consult/models"
	"github.com/anjiri1684/medical_consult/repository"
	"go.uber.org/zap"
)

type CreateConsultationInput struct {
	PatientID      string `json:"patient_id" validate:"required"`
	Specialization string `json:"specialization" validate:"required,max=100"`
	Description    string `json:"description"`
	DoctorID       string `json:"doctor_id,omitempty"`
}

type PrescriptionInput struct {
	MedicineIDs []string `json:"medicine_ids" validate:"omitempty,dive,required"`
	Precautions string   `json:"precautions"`
	DoctorNotes string   `json:"doctor_notes"`
}

// ConsultationService owns the consultation lifecycle:
// PENDING -> ACCEPTED -> PAYMENT_PENDING -> PAID.
type ConsultationService struct {
	repo repository.ConsultationRepository
	fees *FeeResolver
	log  *zap.Logger
}

func NewConsultationService(repo repository.ConsultationRepository, fees *FeeResolver, log *zap.Logger) *ConsultationService {
	return &ConsultationService{repo: repo, fees: fees, log: log.Named("consultations")}
}

func (s *ConsultationService) Create(ctx context.Context, in CreateConsultationInput) (*models.Consultation, error) {
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.Specialization = strings.TrimSpace(in.Specialization)
	in.DoctorID = strings.TrimSpace(in.DoctorID)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	consultation := &models.Consultation{
		PatientID:      in.PatientID,
		Specialization: in.Specialization,
		Description:    in.Description,
		Status:         models.ConsultationPending,
	}
	if in.DoctorID != "" {
		doctorID := in.DoctorID
		consultation.DoctorID = &doctorID
	}

	if err := s.repo.Create(ctx, consultation); err != nil {
		return nil, fmt.Errorf("failed to create consultation: %w", err)
	}
	s.log.Info("consultation created",
		zap.String("consultation_id", consultation.ID),
		zap.String("specialization", consultation.Specialization),
		zap.Bool("direct_booking", consultation.HasDoctor()))
	return consultation, nil
}

// Accept assigns doctorID. Accepting again with the same doctor is a no-op;
// accepting a consultation another doctor holds fails with ErrConflict.
func (s *ConsultationService) Accept(ctx context.Context, id, doctorID string) (*models.Consultation, error) {
	id, doctorID = strings.TrimSpace(id), strings.TrimSpace(doctorID)
	if id == "" || doctorID == "" {
		return nil, fmt.Errorf("%w: consultation id and doctor id are required", models.ErrInvalidArgument)
	}

	consultation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if consultation.AssignedTo(doctorID) && consultation.Status != models.ConsultationPending {
		return consultation, nil
	}
	if err := acceptConflict(consultation, doctorID); err != nil {
		return nil, err
	}

	assigned, err := s.repo.AssignDoctor(ctx, id, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to accept consultation: %w", err)
	}

	consultation, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !assigned && !consultation.AssignedTo(doctorID) {
		if err := acceptConflict(consultation, doctorID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: consultation %s changed concurrently", models.ErrConflict, id)
	}

	s.log.Info("consultation accepted", zap.String("consultation_id", id), zap.String("doctor_id", doctorID))
	return consultation, nil
}

// acceptConflict explains why doctorID cannot take the consultation, or
// returns nil when it can.
func acceptConflict(c *models.Consultation, doctorID string) error {
	if c.HasDoctor() && !c.AssignedTo(doctorID) {
		return fmt.Errorf("%w: consultation %s is assigned to another doctor", models.ErrConflict, c.ID)
	}
	if c.Status != models.ConsultationPending && c.Status != models.ConsultationAccepted {
		return fmt.Errorf("%w: consultation %s is %s and can no longer be accepted", models.ErrConflict, c.ID, c.Status)
	}
	return nil
}

// AddPrescription records the prescription, resolves the fee from the assigned
// doctor and moves the consultation to PAYMENT_PENDING. The consultation must
// have been accepted and not yet paid for.
func (s *ConsultationService) AddPrescription(ctx context.Context, id string, in PrescriptionInput) (*models.Consultation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: consultation id is required", models.ErrInvalidArgument)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	consultation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if consultation.Status.Settled() {
		return nil, fmt.Errorf("%w: consultation %s is already %s", models.ErrConflict, id, consultation.Status)
	}
	if !consultation.Status.Prescribable() {
		return nil, fmt.Errorf("%w: consultation %s must be accepted before prescribing, status is %s",
			models.ErrConflict, id, consultation.Status)
	}

	fee := s.fees.Resolve(ctx, consultation.DoctorID)
	saved, err := s.repo.SavePrescription(ctx, id, repository.Prescription{
		MedicineIDs:     in.MedicineIDs,
		Precautions:     in.Precautions,
		DoctorNotes:     in.DoctorNotes,
		ConsultationFee: fee,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save prescription: %w", err)
	}
	if !saved {
		return nil, fmt.Errorf("%w: consultation %s changed status concurrently", models.ErrConflict, id)
	}

	s.log.Info("prescription added",
		zap.String("consultation_id", id),
		zap.Int("medicines", len(in.MedicineIDs)),
		zap.Float64("fee", fee))
	return s.repo.GetByID(ctx, id)
}

// MarkPaid sets PAID whatever the current status and is safe to repeat.
// paymentID is recorded when non-empty.
func (s *ConsultationService) MarkPaid(ctx context.Context, id, paymentID string) (*models.Consultation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: consultation id is required", models.ErrInvalidArgument)
	}
	if err := s.repo.MarkPaid(ctx, id, strings.TrimSpace(paymentID)); err != nil {
		return nil, err
	}
	s.log.Info("consultation marked paid", zap.String("consultation_id", id), zap.String("payment_id", paymentID))
	return s.repo.GetByID(ctx, id)
}

// GetByID returns the consultation with the prescription hidden until it has
// been paid for.
func (s *ConsultationService) GetByID(ctx context.Context, id string) (*models.Consultation, error) {
	consultation, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	redacted := consultation.Redacted()
	return &redacted, nil
}

// ListPendingBySpecialization returns the open, unassigned requests for the
// specialization followed by those already pinned to doctorID, if given.
func (s *ConsultationService) ListPendingBySpecialization(ctx context.Context, specialization, doctorID string) ([]models.Consultation, error) {
	specialization, doctorID = strings.TrimSpace(specialization), strings.TrimSpace(doctorID)
	if specialization == "" {
		return nil, fmt.Errorf("%w: specialization is required", models.ErrInvalidArgument)
	}

	open, err := s.repo.ListPendingUnassigned(ctx, specialization)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending consultations: %w", err)
	}
	if doctorID == "" {
		return open, nil
	}

	pinned, err := s.repo.ListPendingForDoctor(ctx, specialization, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pinned consultations: %w", err)
	}
	return append(open, pinned...), nil
}

func (s *ConsultationService) ListByPatient(ctx context.Context, patientID string) ([]models.Consultation, error) {
	return s.repo.ListByPatient(ctx, strings.TrimSpace(patientID))
}

func (s *ConsultationService) ListByDoctor(ctx context.Context, doctorID string) ([]models.Consultation, error) {
	return s.repo.ListByDoctor(ctx, strings.TrimSpace(doctorID))
}
