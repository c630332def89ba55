package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Actions recorded by the marketplace
const (
	ActionLeadAccessed       = "lead.accessed"
	ActionClaimFiled         = "claim.filed"
	ActionClaimReviewed      = "claim.reviewed"
	ActionReferralApplied    = "referral.applied"
	ActionReferralRewarded   = "referral.rewarded"
	ActionSubscriptionSynced = "subscription.synced"
	ActionPhoneVerified      = "referral.phone_verified"
)

// AuditLog is one row of the audit trail
type AuditLog struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	// ActorID is who triggered the action; nil for billing webhooks and cron
	ActorID   *uuid.UUID `json:"actor_id,omitempty" gorm:"type:uuid;index"`
	AccountID uuid.UUID  `json:"account_id" gorm:"type:uuid;index"`

	Action   string `json:"action" gorm:"type:text;not null;index"`
	Entity   string `json:"entity" gorm:"type:text;not null;index"`
	EntityID string `json:"entity_id" gorm:"type:text;index"`

	Description string         `json:"description,omitempty" gorm:"type:text"`
	Metadata    datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Entry is what services hand to Record
type Entry struct {
	ActorID     *uuid.UUID
	AccountID   uuid.UUID
	Action      string
	Entity      string
	EntityID    string
	Description string
	Metadata    map[string]interface{}
}

// AuditFilter narrows GetLogs; zero fields match everything
type AuditFilter struct {
	AccountID *uuid.UUID
	Action    string
	Entity    string
	EntityID  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

type AuditLogResponse struct {
	Logs       []AuditLog `json:"logs"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
