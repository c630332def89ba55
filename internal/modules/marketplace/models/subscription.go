package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription statuses we write ourselves; any other Stripe status is stored verbatim
const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

// Subscription is the plan assignment of an account. One row per account:
// re-subscribing overwrites it.
type Subscription struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"account_id"`
	Plan                 Plan       `gorm:"type:varchar(20);not null" json:"plan"`
	BillingInterval      string     `gorm:"type:varchar(10)" json:"billing_interval"`
	StripeSubscriptionID string     `gorm:"type:varchar(64);uniqueIndex" json:"stripe_subscription_id"`
	StripeCustomerID     string     `gorm:"type:varchar(64);index" json:"stripe_customer_id"`
	StripePriceID        string     `gorm:"type:varchar(64)" json:"stripe_price_id,omitempty"`
	Status               string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Subscription) TableName() string {
	return "subscriptions"
}

// BeforeCreate sets UUID before creating
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
