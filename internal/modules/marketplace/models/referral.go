package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralStatus tracks a referral relationship:
// pending -> phone_verified -> converted -> rewarded, or abandoned.
type ReferralStatus string

const (
	ReferralPending       ReferralStatus = "pending"
	ReferralPhoneVerified ReferralStatus = "phone_verified"
	ReferralConverted     ReferralStatus = "converted"
	ReferralRewarded      ReferralStatus = "rewarded"
	ReferralAbandoned     ReferralStatus = "abandoned"
)

// IsOpen reports whether the relationship can still convert
func (s ReferralStatus) IsOpen() bool {
	return s == ReferralPending || s == ReferralPhoneVerified
}

// Referral links a referrer to the account that signed up with its code.
// There is at most one relationship per referred account.
type Referral struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReferrerID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"referrer_id"`
	ReferredID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"referred_id"`
	ReferralCode  string         `gorm:"type:varchar(16);not null" json:"referral_code"`
	Status        ReferralStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ConvertedPlan Plan           `gorm:"type:varchar(20)" json:"converted_plan,omitempty"`
	ConvertedAt   *time.Time     `json:"converted_at,omitempty"`
	RewardedAt    *time.Time     `json:"rewarded_at,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Referral) TableName() string {
	return "referrals"
}

// BeforeCreate sets UUID before creating
func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Reward record statuses and types
const (
	RewardPending = "pending"
	RewardGranted = "granted"

	RewardTypeReferrer = "referrer"
)

// ReferralReward is the audit/idempotency record of a granted referral bonus
type ReferralReward struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReferralID uuid.UUID  `gorm:"type:uuid;not null;index" json:"referral_id"`
	AccountID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"account_id"`
	RewardType string     `gorm:"type:varchar(20);not null" json:"reward_type"`
	Credits    int        `gorm:"not null" json:"credits"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	GrantedAt  *time.Time `json:"granted_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (ReferralReward) TableName() string {
	return "referral_rewards"
}

// BeforeCreate sets UUID before creating
func (r *ReferralReward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
