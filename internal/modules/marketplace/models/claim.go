package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Claim statuses
const (
	ClaimPending  = "pending"
	ClaimApproved = "approved"
	ClaimRejected = "rejected"
)

// Claim is a refund request filed against a lead interaction when the
// homeowner could not be reached. One claim per interaction.
type Claim struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	InteractionID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"interaction_id"`
	ProfessionalID uuid.UUID      `gorm:"type:uuid;not null;index" json:"professional_id"`
	Reason         string         `gorm:"type:text" json:"reason,omitempty"`
	CallCount      int            `gorm:"not null;default:0" json:"call_count"`
	CallDates      datatypes.JSON `gorm:"type:jsonb" json:"call_dates,omitempty"`
	Channels       datatypes.JSON `gorm:"type:jsonb" json:"channels,omitempty"`
	RefundPercent  int            `gorm:"not null" json:"refund_percent"`
	RefundCredits  int            `gorm:"not null" json:"refund_credits"`
	Status         string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewNotes    string         `gorm:"type:text" json:"review_notes,omitempty"`
	ReviewedBy     *uuid.UUID     `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Claim) TableName() string {
	return "lead_claims"
}

// BeforeCreate sets UUID before creating
func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
