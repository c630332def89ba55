package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/metrics"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
	"github.com/rs/zerolog/log"
)

// AccessResult is the answer to a lead access. AlreadyAccessed means no
// credits were charged and the contact comes from the earlier access.
type AccessResult struct {
	InteractionID   uuid.UUID          `json:"interaction_id"`
	LeadID          uuid.UUID          `json:"lead_id"`
	Contact         models.LeadContact `json:"contact"`
	CreditsSpent    int                `json:"credits_spent"`
	AlreadyAccessed bool               `json:"already_accessed"`
	AccessedAt      time.Time          `json:"accessed_at"`
	Balance         *Balance           `json:"balance,omitempty"`
}

// AvailableLead is an open lead as listed to a professional
type AvailableLead struct {
	repositories.LeadListing
	SlotsLeft int  `json:"slots_left"`
	Accessed  bool `json:"accessed"`
}

// InteractionView is an unlocked lead with its claim eligibility
type InteractionView struct {
	models.LeadInteraction
	Lead              *models.Lead        `json:"lead,omitempty"`
	Contact           *models.LeadContact `json:"contact,omitempty"`
	Claim             *models.Claim       `json:"claim,omitempty"`
	ClaimOpensAt      time.Time           `json:"claim_opens_at"`
	ClaimClosesAt     time.Time           `json:"claim_closes_at"`
	CanClaim          bool                `json:"can_claim"`
	RefundableCredits int                 `json:"refundable_credits"`
}

// InteractionSummary aggregates the pipeline of a professional
type InteractionSummary struct {
	Total           int                              `json:"total"`
	ByStatus        map[models.InteractionStatus]int `json:"by_status"`
	CreditsSpent    int                              `json:"credits_spent"`
	CreditsRefunded int                              `json:"credits_refunded"`
	OpenClaims      int                              `json:"open_claims"`
	Balance         int                              `json:"balance"`
}

// LeadService sells lead contact data for credits
type LeadService struct {
	store   repositories.Store
	policy  Policy
	auditor Auditor
	now     func() time.Time
}

// NewLeadService creates a new lead service
func NewLeadService(store repositories.Store, policy Policy, auditor Auditor) *LeadService {
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &LeadService{store: store, policy: policy, auditor: auditor, now: time.Now}
}

// AccessLead charges the lead's credit cost and reveals its contact data.
// The lead row is locked for the transaction so the accessor cap holds, and
// the (professional, lead) unique index makes a repeated access free.
func (s *LeadService) AccessLead(ctx context.Context, professionalID, leadID uuid.UUID) (*AccessResult, error) {
	var result *AccessResult
	err := inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		var err error
		result, err = s.accessTx(ctx, tx, hooks, professionalID, leadID)
		return err
	})
	if err != nil {
		metrics.LeadAccess.WithLabelValues(accessFailure(err)).Inc()
		return nil, err
	}

	if result.AlreadyAccessed {
		metrics.LeadAccess.WithLabelValues("already_accessed").Inc()
		balance, err := s.balance(ctx, professionalID)
		if err == nil {
			result.Balance = &balance
		}
		return result, nil
	}
	metrics.LeadAccess.WithLabelValues("granted").Inc()
	return result, nil
}

func (s *LeadService) accessTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, professionalID, leadID uuid.UUID) (*AccessResult, error) {
	lead, err := tx.Leads().GetForUpdate(ctx, leadID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock lead: %w", err)
	}

	if existing, err := s.existingAccess(ctx, tx, professionalID, lead); err != nil || existing != nil {
		return existing, err
	}

	if lead.Status != models.LeadOpen {
		return nil, ErrLeadClosed
	}
	count, err := tx.Interactions().CountByLead(ctx, lead.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lead accessors: %w", err)
	}
	if int(count) >= s.policy.MaxAccessors(lead) {
		return nil, ErrLeadFull
	}

	interaction := &models.LeadInteraction{
		ProfessionalID: professionalID,
		LeadID:         lead.ID,
		CreditsSpent:   lead.CreditsCost,
		AccessedAt:     s.now(),
		Status:         models.InteractionAccessed,
	}
	if err := tx.Interactions().Create(ctx, interaction); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return s.existingAccess(ctx, tx, professionalID, lead)
		}
		return nil, fmt.Errorf("failed to record lead access: %w", err)
	}

	var balance Balance
	if lead.CreditsCost > 0 {
		balance, err = debitTx(ctx, tx, hooks, professionalID, lead.CreditsCost, Movement{
			Kind:          models.MovementLeadAccess,
			ReferenceType: "lead_interaction",
			ReferenceID:   interaction.ID.String(),
			Description:   fmt.Sprintf("Acceso a lead: %s", lead.Title),
		})
		if err != nil {
			return nil, err
		}
	} else if balance, err = getBalance(ctx, tx, professionalID); err != nil {
		return nil, err
	}

	hooks.add(func(ctx context.Context) {
		log.Info().
			Str("professional_id", professionalID.String()).
			Str("lead_id", lead.ID.String()).
			Int("credits", lead.CreditsCost).
			Int("balance", balance.Balance).
			Msg("🔓 Lead accessed")
		s.auditor.Record(ctx, audit.Entry{
			ActorID:   &professionalID,
			AccountID: professionalID,
			Action:    audit.ActionLeadAccessed,
			Entity:    "lead",
			EntityID:  lead.ID.String(),
			Metadata: map[string]interface{}{
				"interaction_id": interaction.ID.String(),
				"credits_spent":  lead.CreditsCost,
			},
		})
	})

	return &AccessResult{
		InteractionID: interaction.ID,
		LeadID:        lead.ID,
		Contact:       lead.Contact(),
		CreditsSpent:  lead.CreditsCost,
		AccessedAt:    interaction.AccessedAt,
		Balance:       &balance,
	}, nil
}

// existingAccess returns the cached answer when professionalID already
// unlocked lead, nil when it did not
func (s *LeadService) existingAccess(ctx context.Context, tx repositories.Store, professionalID uuid.UUID, lead *models.Lead) (*AccessResult, error) {
	existing, err := tx.Interactions().GetByProfessionalAndLead(ctx, professionalID, lead.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check previous access: %w", err)
	}
	return &AccessResult{
		InteractionID:   existing.ID,
		LeadID:          lead.ID,
		Contact:         lead.Contact(),
		CreditsSpent:    existing.CreditsSpent,
		AlreadyAccessed: true,
		AccessedAt:      existing.AccessedAt,
	}, nil
}

func accessFailure(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, ErrLeadFull):
		return "lead_full"
	}
	return "error"
}

func (s *LeadService) balance(ctx context.Context, accountID uuid.UUID) (Balance, error) {
	return getBalance(ctx, s.store, accountID)
}

// ListAvailable lists open leads below their accessor cap. Contact data is
// never part of the listing.
func (s *LeadService) ListAvailable(ctx context.Context, professionalID uuid.UUID, filter repositories.LeadFilter) ([]AvailableLead, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	listings, err := s.store.Leads().ListOpen(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	mine, err := s.store.Interactions().ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	accessed := make(map[uuid.UUID]bool, len(mine))
	for _, i := range mine {
		accessed[i.LeadID] = true
	}

	out := make([]AvailableLead, 0, len(listings))
	for _, l := range listings {
		lead := l.Lead
		out = append(out, AvailableLead{
			LeadListing: l,
			SlotsLeft:   max(s.policy.MaxAccessors(&lead)-l.AccessCount, 0),
			Accessed:    accessed[l.ID],
		})
	}
	return out, nil
}

// MyInteractions lists the leads a professional unlocked, newest first,
// with claim window and refundable amount
func (s *LeadService) MyInteractions(ctx context.Context, professionalID uuid.UUID) ([]InteractionView, error) {
	interactions, err := s.store.Interactions().ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	if len(interactions) == 0 {
		return []InteractionView{}, nil
	}

	ids := make([]uuid.UUID, 0, len(interactions))
	for _, i := range interactions {
		ids = append(ids, i.LeadID)
	}
	leads, err := s.store.Leads().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load leads: %w", err)
	}
	leadByID := make(map[uuid.UUID]*models.Lead, len(leads))
	for i := range leads {
		leadByID[leads[i].ID] = &leads[i]
	}

	claims, err := s.store.Claims().ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}
	claimByInteraction := make(map[uuid.UUID]*models.Claim, len(claims))
	for i := range claims {
		claimByInteraction[claims[i].InteractionID] = &claims[i]
	}

	now := s.now()
	views := make([]InteractionView, 0, len(interactions))
	for _, i := range interactions {
		opens, closes := s.policy.ClaimWindow(i.AccessedAt)
		view := InteractionView{
			LeadInteraction:   i,
			Claim:             claimByInteraction[i.ID],
			ClaimOpensAt:      opens,
			ClaimClosesAt:     closes,
			RefundableCredits: s.policy.Refund(i.CreditsSpent),
		}
		if lead, ok := leadByID[i.LeadID]; ok {
			contact := lead.Contact()
			view.Lead = lead
			view.Contact = &contact
		}
		view.CanClaim = view.Claim == nil &&
			i.Status != models.InteractionClaimRequested &&
			!now.Before(opens) && !now.After(closes)
		views = append(views, view)
	}
	return views, nil
}

// UpdateInteractionStatus moves an unlocked lead along the sales pipeline.
// Claimed interactions are frozen.
func (s *LeadService) UpdateInteractionStatus(ctx context.Context, professionalID, interactionID uuid.UUID, raw string) (*models.LeadInteraction, error) {
	status, ok := models.ParseInteractionStatus(raw)
	if !ok {
		return nil, ErrInvalidInteractionStatus
	}

	interaction, err := s.store.Interactions().GetByID(ctx, interactionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInteractionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load interaction: %w", err)
	}
	if interaction.ProfessionalID != professionalID {
		return nil, ErrNotInteractionOwner
	}
	if interaction.Status == models.InteractionClaimRequested {
		return nil, ErrInteractionLocked
	}

	if err := s.store.Interactions().UpdateStatus(ctx, interactionID, status); err != nil {
		return nil, fmt.Errorf("failed to update interaction: %w", err)
	}
	interaction.Status = status
	return interaction, nil
}

// Summary counts the pipeline and the credits spent and refunded
func (s *LeadService) Summary(ctx context.Context, professionalID uuid.UUID) (*InteractionSummary, error) {
	interactions, err := s.store.Interactions().ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	claims, err := s.store.Claims().ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}
	balance, err := s.balance(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	summary := &InteractionSummary{
		Total:    len(interactions),
		ByStatus: make(map[models.InteractionStatus]int),
		Balance:  balance.Balance,
	}
	for _, i := range interactions {
		summary.ByStatus[i.Status]++
		summary.CreditsSpent += i.CreditsSpent
	}
	for _, c := range claims {
		switch c.Status {
		case models.ClaimApproved:
			summary.CreditsRefunded += c.RefundCredits
		case models.ClaimPending:
			summary.OpenClaims++
		}
	}
	return summary, nil
}
