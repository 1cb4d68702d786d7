package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anjiri1684/medical_consult/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MemoryStore keeps consultations, payments and reviews in process memory.
// It backs STORAGE_DRIVER=memory and the service tests.
type MemoryStore struct {
	mu sync.RWMutex

	consultations map[string]*memoryRow[models.Consultation]
	payments      map[string]*memoryRow[models.PaymentRecord]
	reviews       map[reviewKey]*memoryRow[models.DoctorReview]

	seq       uint64
	paymentID uint
	now       func() time.Time
}

type memoryRow[T any] struct {
	seq   uint64
	value T
}

type reviewKey struct {
	consultationID string
	patientID      string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		consultations: make(map[string]*memoryRow[models.Consultation]),
		payments:      make(map[string]*memoryRow[models.PaymentRecord]),
		reviews:       make(map[reviewKey]*memoryRow[models.DoctorReview]),
		now:           time.Now,
	}
}

// SetClock replaces the time source used for created/updated timestamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Consultations() ConsultationRepository { return memoryConsultations{s} }
func (s *MemoryStore) Payments() PaymentRepository           { return memoryPayments{s} }
func (s *MemoryStore) Reviews() ReviewRepository             { return memoryReviews{s} }

func (s *MemoryStore) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// newestFirst orders rows by CreatedAt descending, falling back to insertion order.
func newestFirst[T any](rows []*memoryRow[T], createdAt func(*T) time.Time) []T {
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := createdAt(&rows[i].value), createdAt(&rows[j].value)
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.value)
	}
	return out
}

type memoryConsultations struct{ s *MemoryStore }

func cloneConsultation(c models.Consultation) models.Consultation {
	if c.MedicineIDs != nil {
		c.MedicineIDs = append(pq.StringArray(nil), c.MedicineIDs...)
	}
	return c
}

func (r memoryConsultations) Create(ctx context.Context, consultation *models.Consultation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if consultation.ID == "" {
		consultation.ID = uuid.NewString()
	}
	if _, exists := r.s.consultations[consultation.ID]; exists {
		return fmt.Errorf("consultation %s already exists", consultation.ID)
	}
	now := r.s.now()
	if consultation.CreatedAt.IsZero() {
		consultation.CreatedAt = now
	}
	consultation.UpdatedAt = now
	r.s.consultations[consultation.ID] = &memoryRow[models.Consultation]{seq: r.s.nextSeq(), value: cloneConsultation(*consultation)}
	return nil
}

func (r memoryConsultations) GetByID(ctx context.Context, id string) (*models.Consultation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.consultations[id]
	if !ok {
		return nil, fmt.Errorf("consultation %s: %w", id, models.ErrNotFound)
	}
	c := cloneConsultation(row.value)
	return &c, nil
}

func (r memoryConsultations) AssignDoctor(ctx context.Context, id, doctorID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.consultations[id]
	if !ok {
		return false, fmt.Errorf("consultation %s: %w", id, models.ErrNotFound)
	}
	c := &row.value
	if c.Status != models.ConsultationPending && c.Status != models.ConsultationAccepted {
		return false, nil
	}
	if c.HasDoctor() && !c.AssignedTo(doctorID) {
		return false, nil
	}
	c.DoctorID = &doctorID
	c.Status = models.ConsultationAccepted
	c.UpdatedAt = r.s.now()
	return true, nil
}

func (r memoryConsultations) SavePrescription(ctx context.Context, id string, p Prescription) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.consultations[id]
	if !ok {
		return false, fmt.Errorf("consultation %s: %w", id, models.ErrNotFound)
	}
	c := &row.value
	if !c.Status.Prescribable() {
		return false, nil
	}
	precautions, notes, fee := p.Precautions, p.DoctorNotes, p.ConsultationFee
	c.MedicineIDs = append(pq.StringArray(nil), p.MedicineIDs...)
	c.Precautions = &precautions
	c.DoctorNotes = &notes
	c.ConsultationFee = &fee
	c.Status = models.ConsultationPaymentPending
	c.UpdatedAt = r.s.now()
	return true, nil
}

func (r memoryConsultations) MarkPaid(ctx context.Context, id, paymentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.consultations[id]
	if !ok {
		return fmt.Errorf("consultation %s: %w", id, models.ErrNotFound)
	}
	row.value.Status = models.ConsultationPaid
	if paymentID != "" {
		row.value.PaymentID = &paymentID
	}
	row.value.UpdatedAt = r.s.now()
	return nil
}

func (r memoryConsultations) ListByPatient(ctx context.Context, patientID string) ([]models.Consultation, error) {
	return r.filter(func(c *models.Consultation) bool { return c.PatientID == patientID }), nil
}

func (r memoryConsultations) ListByDoctor(ctx context.Context, doctorID string) ([]models.Consultation, error) {
	return r.filter(func(c *models.Consultation) bool { return c.AssignedTo(doctorID) }), nil
}

func (r memoryConsultations) ListPendingUnassigned(ctx context.Context, specialization string) ([]models.Consultation, error) {
	return r.filter(func(c *models.Consultation) bool {
		return c.Specialization == specialization && c.Status == models.ConsultationPending && !c.HasDoctor()
	}), nil
}

func (r memoryConsultations) ListPendingForDoctor(ctx context.Context, specialization, doctorID string) ([]models.Consultation, error) {
	return r.filter(func(c *models.Consultation) bool {
		return c.Specialization == specialization && c.Status == models.ConsultationPending && c.AssignedTo(doctorID)
	}), nil
}

func (r memoryConsultations) filter(keep func(*models.Consultation) bool) []models.Consultation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []*memoryRow[models.Consultation]
	for _, row := range r.s.consultations {
		if keep(&row.value) {
			rows = append(rows, &memoryRow[models.Consultation]{seq: row.seq, value: cloneConsultation(row.value)})
		}
	}
	return newestFirst(rows, func(c *models.Consultation) time.Time { return c.CreatedAt })
}

type memoryPayments struct{ s *MemoryStore }

func (r memoryPayments) Create(ctx context.Context, payment *models.PaymentRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.payments[payment.GatewayOrderID]; exists {
		return fmt.Errorf("payment for order %s already exists", payment.GatewayOrderID)
	}
	r.s.paymentID++
	payment.ID = r.s.paymentID
	now := r.s.now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = models.PaymentCreated
	}
	r.s.payments[payment.GatewayOrderID] = &memoryRow[models.PaymentRecord]{seq: r.s.nextSeq(), value: *payment}
	return nil
}

func (r memoryPayments) GetByOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.payments[gatewayOrderID]
	if !ok {
		return nil, fmt.Errorf("payment for order %s: %w", gatewayOrderID, models.ErrNotFound)
	}
	p := row.value
	return &p, nil
}

func (r memoryPayments) MarkSucceeded(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.PaymentRecord, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.payments[gatewayOrderID]
	if !ok {
		return nil, false, fmt.Errorf("payment for order %s: %w", gatewayOrderID, models.ErrNotFound)
	}
	if row.value.Status == models.PaymentSuccess {
		p := row.value
		return &p, false, nil
	}
	row.value.GatewayPaymentID = &gatewayPaymentID
	row.value.Status = models.PaymentSuccess
	row.value.UpdatedAt = r.s.now()
	p := row.value
	return &p, true, nil
}

func (r memoryPayments) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var expired int64
	for _, row := range r.s.payments {
		if row.value.Status == models.PaymentCreated && row.value.CreatedAt.Before(before) {
			row.value.Status = models.PaymentFailed
			row.value.UpdatedAt = r.s.now()
			expired++
		}
	}
	return expired, nil
}

type memoryReviews struct{ s *MemoryStore }

func (r memoryReviews) FindByConsultationAndPatient(ctx context.Context, consultationID, patientID string) (*models.DoctorReview, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.reviews[reviewKey{consultationID, patientID}]
	if !ok {
		return nil, fmt.Errorf("review for consultation %s: %w", consultationID, models.ErrNotFound)
	}
	review := row.value
	return &review, nil
}

func (r memoryReviews) Upsert(ctx context.Context, review *models.DoctorReview) (*models.DoctorReview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := reviewKey{review.ConsultationID, review.PatientID}
	if row, ok := r.s.reviews[key]; ok {
		row.value.DoctorID = review.DoctorID
		row.value.Rating = review.Rating
		row.value.Review = review.Review
		row.value.UpdatedAt = review.UpdatedAt
		saved := row.value
		return &saved, nil
	}

	saved := *review
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	r.s.reviews[key] = &memoryRow[models.DoctorReview]{seq: r.s.nextSeq(), value: saved}
	return &saved, nil
}

func (r memoryReviews) ListByDoctor(ctx context.Context, doctorID string) ([]models.DoctorReview, error) {
	return r.filter(func(review *models.DoctorReview) bool { return review.DoctorID == doctorID }), nil
}

func (r memoryReviews) ListByPatient(ctx context.Context, patientID string) ([]models.DoctorReview, error) {
	return r.filter(func(review *models.DoctorReview) bool { return review.PatientID == patientID }), nil
}

func (r memoryReviews) Summary(ctx context.Context, doctorID string) (int64, float64, error) {
	reviews := r.filter(func(review *models.DoctorReview) bool { return review.DoctorID == doctorID })
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	total := 0
	for _, review := range reviews {
		total += review.Rating
	}
	return int64(len(reviews)), float64(total) / float64(len(reviews)), nil
}

func (r memoryReviews) filter(keep func(*models.DoctorReview) bool) []models.DoctorReview {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []*memoryRow[models.DoctorReview]
	for _, row := range r.s.reviews {
		if keep(&row.value) {
			rows = append(rows, &memoryRow[models.DoctorReview]{seq: row.seq, value: row.value})
		}
	}
	return newestFirst(rows, func(review *models.DoctorReview) time.Time { return review.CreatedAt })
}
