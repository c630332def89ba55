package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead statuses
const (
	LeadOpen   = "open"
	LeadClosed = "closed"
)

// Lead is a homeowner's renovation request listed for professionals.
// Contact fields are only revealed after a paid access.
type Lead struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string    `gorm:"type:varchar(255);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	ReformType      string    `gorm:"type:varchar(64);index" json:"reform_type"`
	City            string    `gorm:"type:varchar(128)" json:"city"`
	Province        string    `gorm:"type:varchar(128);index" json:"province"`
	PostalCode      string    `gorm:"type:varchar(10)" json:"postal_code"`
	EstimatedBudget float64   `gorm:"type:decimal(12,2)" json:"estimated_budget"`
	CreditsCost     int       `gorm:"not null" json:"credits_cost"`
	MaxAccessors    int       `gorm:"not null;default:3" json:"max_accessors"`
	Status          string    `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`

	ClientName    string `gorm:"type:varchar(255)" json:"-"`
	ClientPhone   string `gorm:"type:varchar(32)" json:"-"`
	ClientEmail   string `gorm:"type:varchar(255)" json:"-"`
	ClientAddress string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Lead) TableName() string {
	return "leads"
}

// BeforeCreate sets UUID before creating
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Contact returns the payload unlocked by a lead access
func (l *Lead) Contact() LeadContact {
	return LeadContact{
		Name:    l.ClientName,
		Phone:   l.ClientPhone,
		Email:   l.ClientEmail,
		Address: l.ClientAddress,
	}
}

// LeadContact is the homeowner contact data revealed to a professional
type LeadContact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// InteractionStatus is the pipeline status of an unlocked lead
type InteractionStatus string

const (
	InteractionAccessed       InteractionStatus = "accessed"
	InteractionSent           InteractionStatus = "sent"
	InteractionContacted      InteractionStatus = "contacted"
	InteractionNegotiating    InteractionStatus = "negotiating"
	InteractionWon            InteractionStatus = "won"
	InteractionLost           InteractionStatus = "lost"
	InteractionClaimRequested InteractionStatus = "claim_requested"
)

// ParseInteractionStatus accepts the statuses a professional may set by hand
func ParseInteractionStatus(raw string) (InteractionStatus, bool) {
	switch s := InteractionStatus(raw); s {
	case InteractionSent, InteractionContacted, InteractionNegotiating, InteractionWon, InteractionLost:
		return s, true
	}
	return "", false
}

// LeadInteraction records that a professional paid to unlock a lead.
// (professional_id, lead_id) is unique.
type LeadInteraction struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProfessionalID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:ux_lead_interactions_professional_lead,priority:1" json:"professional_id"`
	LeadID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:ux_lead_interactions_professional_lead,priority:2;index" json:"lead_id"`
	CreditsSpent   int               `gorm:"not null" json:"credits_spent"`
	AccessedAt     time.Time         `gorm:"not null" json:"accessed_at"`
	Status         InteractionStatus `gorm:"type:varchar(20);not null;default:'accessed'" json:"status"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (LeadInteraction) TableName() string {
	return "lead_interactions"
}

// BeforeCreate sets UUID before creating
func (i *LeadInteraction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
