package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreditBalance holds the spendable credits of one account. The row is created
// lazily by the first movement and never deleted.
type CreditBalance struct {
	AccountID             uuid.UUID `gorm:"type:uuid;primary_key" json:"account_id"`
	CreditsBalance        int       `gorm:"not null;default:0;check:credits_balance >= 0" json:"credits_balance"`
	CreditsPurchasedTotal int       `gorm:"not null;default:0" json:"credits_purchased_total"`
	CreditsSpentTotal     int       `gorm:"not null;default:0" json:"credits_spent_total"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (CreditBalance) TableName() string {
	return "credit_balances"
}

// MovementKind classifies a credit journal entry
type MovementKind string

const (
	MovementPlanFloor     MovementKind = "plan_floor"
	MovementReferralBonus MovementKind = "referral_bonus"
	MovementLeadAccess    MovementKind = "lead_access"
	MovementClaimRefund   MovementKind = "claim_refund"
	MovementAdjustment    MovementKind = "adjustment"
)

// CreditTransaction is an append-only journal row for every balance change.
// Amount is signed: debits are negative.
type CreditTransaction struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID     uuid.UUID    `gorm:"type:uuid;not null;index:idx_credit_tx_account_created,priority:1" json:"account_id"`
	Kind          MovementKind `gorm:"type:varchar(32);not null" json:"kind"`
	Amount        int          `gorm:"not null" json:"amount"`
	BalanceAfter  int          `gorm:"not null" json:"balance_after"`
	ReferenceType string       `gorm:"type:varchar(32)" json:"reference_type,omitempty"`
	ReferenceID   string       `gorm:"type:varchar(64)" json:"reference_id,omitempty"`
	Description   string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt     time.Time    `gorm:"autoCreateTime;index:idx_credit_tx_account_created,priority:2" json:"created_at"`
}

// TableName specifies the table name
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// BeforeCreate sets UUID before creating
func (t *CreditTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
