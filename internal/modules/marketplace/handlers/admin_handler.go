package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/auth"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/services"
)

// AuditReader is the query side of audit.Service
type AuditReader interface {
	GetLogs(ctx context.Context, filter audit.AuditFilter) (*audit.AuditLogResponse, error)
}

// AdminHandler serves the back office: claim review, phone verification
// of referred accounts and the audit trail
type AdminHandler struct {
	claims    *services.ClaimService
	referrals *services.ReferralService
	audit     AuditReader
}

func NewAdminHandler(claims *services.ClaimService, referrals *services.ReferralService, audit AuditReader) *AdminHandler {
	return &AdminHandler{claims: claims, referrals: referrals, audit: audit}
}

// ReviewClaimRequest is the body of POST /admin/claims/:id/review
type ReviewClaimRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// ListClaims godoc
// @Summary Lead claims
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {object} map[string]interface{}
// @Router /admin/claims [get]
func (h *AdminHandler) ListClaims(c *fiber.Ctx) error {
	claims, err := h.claims.ListClaims(c.UserContext(), c.Query("status"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"claims": claims,
		"count":  len(claims),
	})
}

// ReviewClaim godoc
// @Summary Approve or reject a pending claim
// @Description Approval credits the refund once
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Param body body ReviewClaimRequest true "Decision"
// @Success 200 {object} services.ClaimOutcome
// @Failure 409 {object} map[string]interface{}
// @Router /admin/claims/{id}/review [post]
func (h *AdminHandler) ReviewClaim(c *fiber.Ctx) error {
	claimID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid claim id")
	}
	var req ReviewClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	out, err := h.claims.ReviewClaim(c.UserContext(), auth.AccountID(c), claimID, req.Approve, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// MarkPhoneVerified godoc
// @Summary Mark a referred account's phone as verified
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param referredId path string true "Referred account ID"
// @Success 200 {object} models.Referral
// @Router /admin/referrals/{referredId}/phone-verified [post]
func (h *AdminHandler) MarkPhoneVerified(c *fiber.Ctx) error {
	referredID, ok := paramUUID(c, "referredId")
	if !ok {
		return badRequest(c, "invalid account id")
	}

	referral, err := h.referrals.MarkPhoneVerified(c.UserContext(), auth.AccountID(c), referredID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(referral)
}

// ListAuditLogs godoc
// @Summary Audit trail
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param account_id query string false "Account ID"
// @Param action query string false "Action, e.g. lead.accessed"
// @Param entity query string false "Entity"
// @Param entity_id query string false "Entity ID"
// @Param start_date query string false "RFC3339"
// @Param end_date query string false "RFC3339"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} audit.AuditLogResponse
// @Router /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	filter := audit.AuditFilter{
		Action:   c.Query("action"),
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 50),
	}

	if raw := c.Query("account_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid account_id")
		}
		filter.AccountID = &id
	}
	for key, dst := range map[string]**time.Time{"start_date": &filter.StartDate, "end_date": &filter.EndDate} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, key+" must be RFC3339")
		}
		*dst = &t
	}

	logs, err := h.audit.GetLogs(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(logs)
}
