package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"gorm.io/gorm"
)

// ReferralTransition is a compare-and-set status change on a referral
type ReferralTransition struct {
	From []models.ReferralStatus
	To   models.ReferralStatus
	Plan models.Plan // stored when To is converted
	At   time.Time
}

type ReferralRepo interface {
	Create(ctx context.Context, referral *models.Referral) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Referral, error)
	GetByReferred(ctx context.Context, referredID uuid.UUID) (*models.Referral, error)
	// FindOpenByReferred returns the pending or phone_verified relationship
	FindOpenByReferred(ctx context.Context, referredID uuid.UUID) (*models.Referral, error)
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]models.Referral, error)
	// Transition applies the change only if the current status is one of
	// t.From and reports whether it did
	Transition(ctx context.Context, id uuid.UUID, t ReferralTransition) (bool, error)
	AbandonOpenBefore(ctx context.Context, before, at time.Time) (int64, error)

	CreateReward(ctx context.Context, reward *models.ReferralReward) error
	MarkRewardGranted(ctx context.Context, rewardID uuid.UUID, at time.Time) error
	ListRewardsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.ReferralReward, error)
}

type referralRepo struct {
	db *gorm.DB
}

var openReferralStatuses = []models.ReferralStatus{models.ReferralPending, models.ReferralPhoneVerified}

func (r *referralRepo) Create(ctx context.Context, referral *models.Referral) error {
	return translate(r.db.WithContext(ctx).Create(referral).Error)
}

func (r *referralRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	if err := r.db.WithContext(ctx).First(&referral, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &referral, nil
}

func (r *referralRepo) GetByReferred(ctx context.Context, referredID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	if err := r.db.WithContext(ctx).Where("referred_id = ?", referredID).First(&referral).Error; err != nil {
		return nil, translate(err)
	}
	return &referral, nil
}

func (r *referralRepo) FindOpenByReferred(ctx context.Context, referredID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).
		Where("referred_id = ? AND status IN ?", referredID, openReferralStatuses).
		First(&referral).Error
	if err != nil {
		return nil, translate(err)
	}
	return &referral, nil
}

func (r *referralRepo) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&referrals).Error
	return referrals, err
}

func (r *referralRepo) Transition(ctx context.Context, id uuid.UUID, t ReferralTransition) (bool, error) {
	updates := map[string]interface{}{"status": t.To}
	switch t.To {
	case models.ReferralConverted:
		updates["converted_plan"] = t.Plan
		updates["converted_at"] = t.At
	case models.ReferralRewarded:
		updates["rewarded_at"] = t.At
	}

	res := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ? AND status IN ?", id, t.From).
		Updates(updates)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *referralRepo) AbandonOpenBefore(ctx context.Context, before, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("status IN ? AND created_at < ?", openReferralStatuses, before).
		Updates(map[string]interface{}{"status": models.ReferralAbandoned, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (r *referralRepo) CreateReward(ctx context.Context, reward *models.ReferralReward) error {
	return translate(r.db.WithContext(ctx).Create(reward).Error)
}

func (r *referralRepo) MarkRewardGranted(ctx context.Context, rewardID uuid.UUID, at time.Time) error {
	return affected(r.db.WithContext(ctx).Model(&models.ReferralReward{}).
		Where("id = ?", rewardID).
		Updates(map[string]interface{}{"status": models.RewardGranted, "granted_at": at}))
}

func (r *referralRepo) ListRewardsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.ReferralReward, error) {
	var rewards []models.ReferralReward
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&rewards).Error
	return rewards, err
}
