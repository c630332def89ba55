package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/payment"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/services"
	"github.com/rs/zerolog/log"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrInvalidAmount, fiber.StatusBadRequest, "invalid_amount"},
	{services.ErrInvalidInteractionStatus, fiber.StatusBadRequest, "invalid_status"},
	{services.ErrInvalidClaimRequest, fiber.StatusBadRequest, "invalid_claim"},
	{services.ErrInvalidReferralCode, fiber.StatusBadRequest, "invalid_referral_code"},
	{services.ErrSelfReferral, fiber.StatusBadRequest, "self_referral"},
	{services.ErrInvalidPlan, fiber.StatusBadRequest, "invalid_plan"},
	{services.ErrNoBillingAccount, fiber.StatusBadRequest, "no_billing_account"},
	{payment.ErrInvalidSignature, fiber.StatusBadRequest, "invalid_signature"},

	{services.ErrInsufficientCredits, fiber.StatusPaymentRequired, "insufficient_credits"},

	{services.ErrNotInteractionOwner, fiber.StatusForbidden, "forbidden"},

	{services.ErrAccountNotFound, fiber.StatusNotFound, "account_not_found"},
	{services.ErrLeadNotFound, fiber.StatusNotFound, "lead_not_found"},
	{services.ErrInteractionNotFound, fiber.StatusNotFound, "interaction_not_found"},
	{services.ErrClaimNotFound, fiber.StatusNotFound, "claim_not_found"},
	{services.ErrReferralNotFound, fiber.StatusNotFound, "referral_not_found"},

	{services.ErrLeadFull, fiber.StatusConflict, "lead_full"},
	{services.ErrLeadClosed, fiber.StatusConflict, "lead_closed"},
	{services.ErrInteractionLocked, fiber.StatusConflict, "interaction_locked"},
	{services.ErrAlreadyClaimed, fiber.StatusConflict, "already_claimed"},
	{services.ErrClaimAlreadyResolved, fiber.StatusConflict, "claim_resolved"},
	{services.ErrAlreadyReferred, fiber.StatusConflict, "already_referred"},
	{services.ErrReferralNotEligible, fiber.StatusConflict, "referral_not_eligible"},
	{services.ErrReferralNotOpen, fiber.StatusConflict, "referral_closed"},

	{services.ErrClaimWindowNotOpen, fiber.StatusUnprocessableEntity, "claim_window_not_open"},
	{services.ErrClaimWindowClosed, fiber.StatusUnprocessableEntity, "claim_window_closed"},
	{services.ErrAccountNotResolved, fiber.StatusUnprocessableEntity, "account_not_resolved"},

	{services.ErrCompanyNameRequired, fiber.StatusPreconditionRequired, "company_name_required"},

	{payment.ErrGatewayDisabled, fiber.StatusServiceUnavailable, "billing_unavailable"},
}

// respondError maps service errors to an HTTP status and a machine code.
// Anything unknown is logged and answered as a 500 without its details.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(fiber.Map{"error": m.err.Error(), "code": m.code})
		}
	}

	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("❌ Request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
		"code":  "internal",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message, "code": "invalid_request"})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
