package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the account record of a professional/company. Rows are created
// by the auth provider on sign-up; this service only reads and patches them.
type Profile struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email            string    `gorm:"type:varchar(255);index" json:"email"`
	FullName         string    `gorm:"type:varchar(255)" json:"full_name"`
	CompanyName      string    `gorm:"type:varchar(255)" json:"company_name"`
	Phone            string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Plan             Plan      `gorm:"type:varchar(20);not null;default:'free'" json:"plan"`
	StripeCustomerID *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	ReferralCode     *string   `gorm:"type:varchar(16);uniqueIndex" json:"referral_code,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Profile) TableName() string {
	return "profiles"
}

// DisplayName returns the name shown to homeowners and in notifications
func (p *Profile) DisplayName() string {
	if p.CompanyName != "" {
		return p.CompanyName
	}
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}
