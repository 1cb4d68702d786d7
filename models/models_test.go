package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConsultationRedacted(t *testing.T) {
	precautions := "rest"
	notes := "follow up in a week"

	tests := []struct {
		status ConsultationStatus
		hidden bool
	}{
		{ConsultationPending, true},
		{ConsultationAccepted, true},
		{ConsultationPaymentPending, true},
		{ConsultationPaid, false},
		{ConsultationCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := Consultation{
				ID:          "c1",
				Status:      tt.status,
				MedicineIDs: pq.StringArray{"m1", "m2"},
				Precautions: &precautions,
				DoctorNotes: &notes,
			}
			view := c.Redacted()
			if tt.hidden {
				assert.Nil(t, view.MedicineIDs)
				assert.Nil(t, view.Precautions)
				assert.Nil(t, view.DoctorNotes)
			} else {
				assert.Equal(t, pq.StringArray{"m1", "m2"}, view.MedicineIDs)
				assert.Equal(t, &precautions, view.Precautions)
				assert.Equal(t, &notes, view.DoctorNotes)
			}
			// the original is untouched
			assert.Len(t, c.MedicineIDs, 2)
			assert.NotNil(t, c.DoctorNotes)
		})
	}
}

func TestConsultationStatusPrescribed(t *testing.T) {
	assert.False(t, ConsultationPending.Prescribed())
	assert.False(t, ConsultationAccepted.Prescribed())
	assert.True(t, ConsultationPaymentPending.Prescribed())
	assert.True(t, ConsultationPaid.Prescribed())
	assert.True(t, ConsultationCompleted.Prescribed())
}

func TestConsultationStatusPrescribable(t *testing.T) {
	assert.False(t, ConsultationPending.Prescribable(), "a direct booking still needs the doctor's accept")
	assert.True(t, ConsultationAccepted.Prescribable())
	assert.True(t, ConsultationPaymentPending.Prescribable())
	assert.False(t, ConsultationPaid.Prescribable())
	assert.False(t, ConsultationCompleted.Prescribable())
}

func TestPaymentTypeKind(t *testing.T) {
	tests := []struct {
		in   PaymentType
		want PaymentKind
	}{
		{"CONSULTATION", PaymentKindConsultation},
		{"consultation", PaymentKindConsultation},
		{" Subscription ", PaymentKindSubscription},
		{"DONATION", PaymentKindOther},
		{"", PaymentKindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Kind(), "payment type %q", tt.in)
	}
	assert.Equal(t, "OTHER", PaymentKindOther.String())
}

func TestAssignedTo(t *testing.T) {
	doctor := "d1"
	empty := ""

	assert.True(t, (&Consultation{DoctorID: &doctor}).AssignedTo("d1"))
	assert.False(t, (&Consultation{DoctorID: &doctor}).AssignedTo("d2"))
	assert.False(t, (&Consultation{}).AssignedTo("d1"))
	assert.False(t, (&Consultation{DoctorID: &empty}).HasDoctor())
}
