package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/presupuestalo/marketplace-be/internal/core/auth"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/services"
)

type LeadHandler struct {
	leads    *services.LeadService
	claims   *services.ClaimService
	profiles *services.ProfileService
}

func NewLeadHandler(leads *services.LeadService, claims *services.ClaimService, profiles *services.ProfileService) *LeadHandler {
	return &LeadHandler{leads: leads, claims: claims, profiles: profiles}
}

// InteractionStatusRequest is the body of PATCH /interactions/:id/status
type InteractionStatusRequest struct {
	Status string `json:"status"`
}

// ListLeads godoc
// @Summary Available leads
// @Description Open leads that still have free slots. Contact data stays hidden until unlocked.
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param province query string false "Province"
// @Param reform_type query string false "Reform type"
// @Param limit query int false "Page size (default 20)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /leads [get]
func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	filter := repositories.LeadFilter{
		Province:   c.Query("province"),
		ReformType: c.Query("reform_type"),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	}

	leads, err := h.leads.ListAvailable(c.UserContext(), auth.AccountID(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"leads": leads,
		"count": len(leads),
	})
}

// AccessLead godoc
// @Summary Unlock a lead
// @Description Charges the lead's credit cost once and reveals the homeowner contact. Repeated calls are free.
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} services.AccessResult
// @Failure 402 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 428 {object} map[string]interface{}
// @Router /leads/{id}/access [post]
func (h *LeadHandler) AccessLead(c *fiber.Ctx) error {
	leadID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid lead id")
	}

	accountID := auth.AccountID(c)
	if err := h.profiles.RequireCompanyName(c.UserContext(), accountID); err != nil {
		return respondError(c, err)
	}

	res, err := h.leads.AccessLead(c.UserContext(), accountID, leadID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ListInteractions godoc
// @Summary My unlocked leads
// @Description Unlocked leads with contact data, claim window and refundable credits
// @Tags Interactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /interactions [get]
func (h *LeadHandler) ListInteractions(c *fiber.Ctx) error {
	views, err := h.leads.MyInteractions(c.UserContext(), auth.AccountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"interactions": views,
		"count":        len(views),
	})
}

// GetSummary godoc
// @Summary Interaction summary
// @Tags Interactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.InteractionSummary
// @Router /interactions/summary [get]
func (h *LeadHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.leads.Summary(c.UserContext(), auth.AccountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// UpdateStatus godoc
// @Summary Move an unlocked lead through the sales pipeline
// @Tags Interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Interaction ID"
// @Param body body InteractionStatusRequest true "sent, contacted, negotiating, won or lost"
// @Success 200 {object} models.LeadInteraction
// @Router /interactions/{id}/status [patch]
func (h *LeadHandler) UpdateStatus(c *fiber.Ctx) error {
	interactionID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid interaction id")
	}
	var req InteractionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	interaction, err := h.leads.UpdateInteractionStatus(c.UserContext(), auth.AccountID(c), interactionID, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(interaction)
}

// ClaimLead godoc
// @Summary Claim a refund for an unreachable homeowner
// @Description Accepted between 48 hours and 7 days after the lead was unlocked
// @Tags Interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Interaction ID"
// @Param body body services.ClaimRequest true "Contact attempts"
// @Success 201 {object} services.ClaimOutcome
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /interactions/{id}/claim [post]
func (h *LeadHandler) ClaimLead(c *fiber.Ctx) error {
	interactionID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid interaction id")
	}
	var req services.ClaimRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request")
		}
	}

	out, err := h.claims.ClaimLead(c.UserContext(), auth.AccountID(c), interactionID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
