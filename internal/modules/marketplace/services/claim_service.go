package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/metrics"
	"github.com/presupuestalo/marketplace-be/internal/core/notification"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const maxClaimReason = 2000

// Contact channels a professional can report having tried
var claimChannels = map[string]bool{
	"phone":    true,
	"whatsapp": true,
	"email":    true,
	"sms":      true,
}

// ClaimRequest is the evidence a professional files with a claim
type ClaimRequest struct {
	Reason    string      `json:"reason"`
	CallCount int         `json:"call_count"`
	CallDates []time.Time `json:"call_dates"`
	Channels  []string    `json:"channels"`
}

func (r *ClaimRequest) normalize() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > maxClaimReason || r.CallCount < 0 {
		return ErrInvalidClaimRequest
	}
	if r.CallCount < len(r.CallDates) {
		r.CallCount = len(r.CallDates)
	}
	seen := make(map[string]bool, len(r.Channels))
	channels := r.Channels[:0]
	for _, c := range r.Channels {
		c = strings.ToLower(strings.TrimSpace(c))
		if !claimChannels[c] {
			return fmt.Errorf("%w: unknown channel %q", ErrInvalidClaimRequest, c)
		}
		if !seen[c] {
			seen[c] = true
			channels = append(channels, c)
		}
	}
	r.Channels = channels
	return nil
}

// ClaimOutcome is the stored claim plus the balance after any refund
type ClaimOutcome struct {
	Claim   *models.Claim `json:"claim"`
	Balance *Balance      `json:"balance,omitempty"`
}

// ClaimService refunds part of a lead access when the homeowner was unreachable
type ClaimService struct {
	store    repositories.Store
	policy   Policy
	notifier Notifier
	auditor  Auditor
	now      func() time.Time
}

// NewClaimService creates a new claim service
func NewClaimService(store repositories.Store, policy Policy, notifier Notifier, auditor Auditor) *ClaimService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &ClaimService{
		store:    store,
		policy:   policy,
		notifier: notifier,
		auditor:  auditor,
		now:      time.Now,
	}
}

// ClaimLead files a claim against an interaction. It is accepted only
// inside the claim window measured from the access time. With auto
// approval the refund is credited in the same transaction.
func (s *ClaimService) ClaimLead(ctx context.Context, professionalID, interactionID uuid.UUID, req ClaimRequest) (*ClaimOutcome, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var out *ClaimOutcome
	err := inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		var err error
		out, err = s.claimTx(ctx, tx, hooks, professionalID, interactionID, req)
		return err
	})
	if err != nil {
		if result := claimFailure(err); result != "" {
			metrics.LeadClaims.WithLabelValues(result).Inc()
		}
		return nil, err
	}
	metrics.LeadClaims.WithLabelValues(out.Claim.Status).Inc()
	return out, nil
}

func (s *ClaimService) claimTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, professionalID, interactionID uuid.UUID, req ClaimRequest) (*ClaimOutcome, error) {
	interaction, err := tx.Interactions().GetByID(ctx, interactionID)
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
		return nil, ErrAlreadyClaimed
	}

	now := s.now()
	opens, closes := s.policy.ClaimWindow(interaction.AccessedAt)
	if now.Before(opens) {
		return nil, ErrClaimWindowNotOpen
	}
	if now.After(closes) {
		return nil, ErrClaimWindowClosed
	}

	claim := &models.Claim{
		InteractionID:  interaction.ID,
		ProfessionalID: professionalID,
		Reason:         req.Reason,
		CallCount:      req.CallCount,
		CallDates:      jsonColumn(req.CallDates),
		Channels:       jsonColumn(req.Channels),
		RefundPercent:  s.policy.RefundPercent,
		RefundCredits:  s.policy.Refund(interaction.CreditsSpent),
		Status:         models.ClaimPending,
	}
	if err := tx.Claims().Create(ctx, claim); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to file claim: %w", err)
	}
	if err := tx.Interactions().UpdateStatus(ctx, interaction.ID, models.InteractionClaimRequested); err != nil {
		return nil, fmt.Errorf("failed to update interaction: %w", err)
	}

	out := &ClaimOutcome{Claim: claim}
	if s.policy.AutoApproveClaims {
		balance, err := s.approveTx(ctx, tx, hooks, claim, nil, "")
		if err != nil {
			return nil, err
		}
		out.Balance = balance
	}

	hooks.add(func(ctx context.Context) {
		log.Info().
			Str("professional_id", professionalID.String()).
			Str("claim_id", claim.ID.String()).
			Str("status", claim.Status).
			Int("refund", claim.RefundCredits).
			Msg("📝 Claim filed")
		s.auditor.Record(ctx, audit.Entry{
			ActorID:   &professionalID,
			AccountID: professionalID,
			Action:    audit.ActionClaimFiled,
			Entity:    "claim",
			EntityID:  claim.ID.String(),
			Metadata: map[string]interface{}{
				"interaction_id": interaction.ID.String(),
				"reason":         claim.Reason,
				"call_count":     claim.CallCount,
				"call_dates":     req.CallDates,
				"channels":       req.Channels,
				"refund_percent": claim.RefundPercent,
				"refund_credits": claim.RefundCredits,
				"status":         claim.Status,
			},
		})
		if claim.Status == models.ClaimPending {
			s.notifier.Notify(ctx, professionalID, notification.Notification{
				Kind:    notification.KindClaimFiled,
				Title:   "Reclamación recibida",
				Message: fmt.Sprintf("Hemos recibido tu reclamación. Si se aprueba recuperarás %d créditos.", claim.RefundCredits),
				Data:    map[string]string{"claim_id": claim.ID.String()},
			})
		}
	})

	return out, nil
}

// approveTx credits the refund and marks the claim approved
func (s *ClaimService) approveTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, claim *models.Claim, reviewerID *uuid.UUID, notes string) (*Balance, error) {
	now := s.now()
	ok, err := tx.Claims().Resolve(ctx, claim.ID, repositories.ClaimResolution{
		Status:     models.ClaimApproved,
		ReviewerID: reviewerID,
		Notes:      notes,
		At:         now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to approve claim: %w", err)
	}
	if !ok {
		return nil, ErrClaimAlreadyResolved
	}
	claim.Status = models.ClaimApproved
	claim.ReviewedBy = reviewerID
	claim.ReviewNotes = notes
	claim.ResolvedAt = &now

	var balance Balance
	if claim.RefundCredits > 0 {
		balance, err = creditTx(ctx, tx, hooks, claim.ProfessionalID, claim.RefundCredits, Movement{
			Kind:          models.MovementClaimRefund,
			ReferenceType: "claim",
			ReferenceID:   claim.ID.String(),
			Description:   fmt.Sprintf("Reembolso del %d%% por lead no contactable", claim.RefundPercent),
		})
	} else {
		balance, err = getBalance(ctx, tx, claim.ProfessionalID)
	}
	if err != nil {
		return nil, err
	}

	hooks.add(func(ctx context.Context) {
		s.notifier.Notify(ctx, claim.ProfessionalID, notification.Notification{
			Kind:    notification.KindClaimApproved,
			Title:   "Reclamación aprobada",
			Message: fmt.Sprintf("Te hemos devuelto %d créditos.", claim.RefundCredits),
			Data: map[string]string{
				"claim_id": claim.ID.String(),
				"credits":  fmt.Sprintf("%d", claim.RefundCredits),
			},
		})
	})
	return &balance, nil
}

// ReviewClaim resolves a pending claim by hand. Approval credits the refund
// once; rejection only records the notes.
func (s *ClaimService) ReviewClaim(ctx context.Context, reviewerID, claimID uuid.UUID, approve bool, notes string) (*ClaimOutcome, error) {
	notes = strings.TrimSpace(notes)

	var out *ClaimOutcome
	err := inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		claim, err := tx.Claims().GetByID(ctx, claimID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClaimNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load claim: %w", err)
		}
		if claim.Status != models.ClaimPending {
			return ErrClaimAlreadyResolved
		}

		out = &ClaimOutcome{Claim: claim}
		if approve {
			if out.Balance, err = s.approveTx(ctx, tx, hooks, claim, &reviewerID, notes); err != nil {
				return err
			}
		} else {
			if err := s.rejectTx(ctx, tx, hooks, claim, reviewerID, notes); err != nil {
				return err
			}
		}

		hooks.add(func(ctx context.Context) {
			log.Info().
				Str("claim_id", claim.ID.String()).
				Str("reviewer_id", reviewerID.String()).
				Str("status", claim.Status).
				Msg("Claim reviewed")
			s.auditor.Record(ctx, audit.Entry{
				ActorID:   &reviewerID,
				AccountID: claim.ProfessionalID,
				Action:    audit.ActionClaimReviewed,
				Entity:    "claim",
				EntityID:  claim.ID.String(),
				Metadata: map[string]interface{}{
					"status":         claim.Status,
					"refund_credits": claim.RefundCredits,
					"notes":          notes,
				},
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.LeadClaims.WithLabelValues(out.Claim.Status).Inc()
	return out, nil
}

func (s *ClaimService) rejectTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, claim *models.Claim, reviewerID uuid.UUID, notes string) error {
	now := s.now()
	ok, err := tx.Claims().Resolve(ctx, claim.ID, repositories.ClaimResolution{
		Status:     models.ClaimRejected,
		ReviewerID: &reviewerID,
		Notes:      notes,
		At:         now,
	})
	if err != nil {
		return fmt.Errorf("failed to reject claim: %w", err)
	}
	if !ok {
		return ErrClaimAlreadyResolved
	}
	claim.Status = models.ClaimRejected
	claim.ReviewedBy = &reviewerID
	claim.ReviewNotes = notes
	claim.ResolvedAt = &now

	hooks.add(func(ctx context.Context) {
		message := "Tu reclamación no ha sido aprobada."
		if notes != "" {
			message += " Motivo: " + notes
		}
		s.notifier.Notify(ctx, claim.ProfessionalID, notification.Notification{
			Kind:    notification.KindClaimRejected,
			Title:   "Reclamación rechazada",
			Message: message,
			Data:    map[string]string{"claim_id": claim.ID.String()},
		})
	})
	return nil
}

// ListClaims returns claims for review, newest first; an empty status lists all
func (s *ClaimService) ListClaims(ctx context.Context, status string, limit int) ([]models.Claim, error) {
	switch status {
	case "", models.ClaimPending, models.ClaimApproved, models.ClaimRejected:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidClaimRequest, status)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	claims, err := s.store.Claims().List(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, nil
}

func claimFailure(err error) string {
	switch {
	case errors.Is(err, ErrClaimWindowNotOpen):
		return "window_not_open"
	case errors.Is(err, ErrClaimWindowClosed):
		return "window_closed"
	case errors.Is(err, ErrAlreadyClaimed):
		return "duplicate"
	}
	return ""
}

func jsonColumn(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
