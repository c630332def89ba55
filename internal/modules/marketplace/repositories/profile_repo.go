package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"gorm.io/gorm"
)

type ProfileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Profile, error)
	GetByReferralCode(ctx context.Context, code string) (*models.Profile, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, plan models.Plan) error
	UpdateStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
	UpdateCompanyName(ctx context.Context, id uuid.UUID, companyName string) error
	// SetReferralCode assigns a code only when the profile has none yet.
	// Returns ErrNotFound if the profile already had a code.
	SetReferralCode(ctx context.Context, id uuid.UUID, code string) error
}

type profileRepo struct {
	db *gorm.DB
}

func (r *profileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&profile).Error
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profileRepo) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profileRepo) GetByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profileRepo) UpdatePlan(ctx context.Context, id uuid.UUID, plan models.Plan) error {
	return affected(r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("plan", plan))
}

func (r *profileRepo) UpdateStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return affected(r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("stripe_customer_id", customerID))
}

func (r *profileRepo) UpdateCompanyName(ctx context.Context, id uuid.UUID, companyName string) error {
	return affected(r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("company_name", companyName))
}

func (r *profileRepo) SetReferralCode(ctx context.Context, id uuid.UUID, code string) error {
	return affected(r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND referral_code IS NULL", id).
		Update("referral_code", code))
}
