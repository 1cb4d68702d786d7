package models

// UserProfile is the subset of an identity-service user this service reads.
// It is never persisted here.
type UserProfile struct {
	ID              string   `json:"id"`
	Role            string   `json:"role"`
	ConsultationFee *float64 `json:"consultationFee"`
}
