package services

import (
	"context"
	"strings"

	"github.com/anjiri1684/medical_consult/models"
	"go.uber.org/zap"
)

const DefaultConsultationFee = 500.0

type ProfileLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.UserProfile, error)
}

// FeeResolver looks up a doctor's consultation fee. It never fails: any lookup
// problem, a missing profile or a non-positive fee yields the default fee.
type FeeResolver struct {
	profiles   ProfileLookup
	defaultFee float64
	log        *zap.Logger
}

// NewFeeResolver returns a resolver. profiles may be nil, in which case every
// consultation is billed at defaultFee.
func NewFeeResolver(profiles ProfileLookup, defaultFee float64, log *zap.Logger) *FeeResolver {
	if defaultFee <= 0 {
		defaultFee = DefaultConsultationFee
	}
	return &FeeResolver{profiles: profiles, defaultFee: defaultFee, log: log}
}

func (r *FeeResolver) Resolve(ctx context.Context, doctorID *string) float64 {
	if doctorID == nil || strings.TrimSpace(*doctorID) == "" || r.profiles == nil {
		return r.defaultFee
	}

	profile, err := r.profiles.GetUserByID(ctx, *doctorID)
	if err != nil {
		r.log.Warn("doctor profile lookup failed, using default fee",
			zap.String("doctor_id", *doctorID), zap.Float64("fee", r.defaultFee), zap.Error(err))
		return r.defaultFee
	}
	if profile == nil || profile.ConsultationFee == nil || *profile.ConsultationFee <= 0 {
		return r.defaultFee
	}
	return *profile.ConsultationFee
}
