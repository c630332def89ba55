package services

import (
	"time"

	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/shared/config"
)

// Policy holds the business constants of the credits marketplace
type Policy struct {
	// PlanFloors is the minimum balance a paid plan guarantees on activation and renewal
	PlanFloors map[models.Plan]int
	// ReferralRewards is credited to both sides when a referred account converts
	ReferralRewards map[models.Plan]int

	RefundPercent     int
	ClaimOpensAfter   time.Duration
	ClaimClosesAfter  time.Duration
	AutoApproveClaims bool

	// MaxAccessorsPerLead applies when a lead has no cap of its own
	MaxAccessorsPerLead int

	ReferralAbandonAfter time.Duration
}

// DefaultPolicy returns the production values
func DefaultPolicy() Policy {
	return Policy{
		PlanFloors: map[models.Plan]int{
			models.PlanBasic: 300,
			models.PlanPro:   500,
		},
		ReferralRewards: map[models.Plan]int{
			models.PlanBasic: 100,
			models.PlanPro:   150,
		},
		RefundPercent:        75,
		ClaimOpensAfter:      48 * time.Hour,
		ClaimClosesAfter:     168 * time.Hour,
		AutoApproveClaims:    true,
		MaxAccessorsPerLead:  3,
		ReferralAbandonAfter: 90 * 24 * time.Hour,
	}
}

// PolicyFromConfig overrides the defaults with the configured values
func PolicyFromConfig(cfg *config.Config) Policy {
	p := DefaultPolicy()
	p.RefundPercent = cfg.ClaimRefundPercent
	p.AutoApproveClaims = cfg.ClaimAutoApprove
	if cfg.ClaimWindowOpenHours > 0 {
		p.ClaimOpensAfter = time.Duration(cfg.ClaimWindowOpenHours) * time.Hour
	}
	if cfg.ClaimWindowCloseHours > 0 {
		p.ClaimClosesAfter = time.Duration(cfg.ClaimWindowCloseHours) * time.Hour
	}
	if cfg.LeadMaxAccessors > 0 {
		p.MaxAccessorsPerLead = cfg.LeadMaxAccessors
	}
	if cfg.ReferralAbandonDays > 0 {
		p.ReferralAbandonAfter = time.Duration(cfg.ReferralAbandonDays) * 24 * time.Hour
	}
	return p
}

// Floor returns the credit floor of plan, 0 for free
func (p Policy) Floor(plan models.Plan) int {
	return p.PlanFloors[plan]
}

// Reward returns the referral bonus for a conversion to plan, 0 if none
func (p Policy) Reward(plan models.Plan) int {
	return p.ReferralRewards[plan]
}

// Refund is floor(spent * RefundPercent / 100)
func (p Policy) Refund(spent int) int {
	if spent <= 0 || p.RefundPercent <= 0 {
		return 0
	}
	return spent * p.RefundPercent / 100
}

// ClaimWindow returns when claims open and close for an access at accessedAt.
// Both bounds are inclusive.
func (p Policy) ClaimWindow(accessedAt time.Time) (opens, closes time.Time) {
	return accessedAt.Add(p.ClaimOpensAfter), accessedAt.Add(p.ClaimClosesAfter)
}

// MaxAccessors returns the effective accessor cap of lead
func (p Policy) MaxAccessors(lead *models.Lead) int {
	if lead.MaxAccessors > 0 {
		return lead.MaxAccessors
	}
	return p.MaxAccessorsPerLead
}
