package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/presupuestalo/marketplace-be/internal/core/auth"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/services"
)

type ReferralHandler struct {
	referrals *services.ReferralService
}

func NewReferralHandler(referrals *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// ApplyCodeRequest is the body of POST /referrals/apply
type ApplyCodeRequest struct {
	Code string `json:"code"`
}

// GetOverview godoc
// @Summary My referral program
// @Description Own code and share link, referred accounts and rewards earned
// @Tags Referrals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.ReferralOverview
// @Router /referrals/me [get]
func (h *ReferralHandler) GetOverview(c *fiber.Ctx) error {
	overview, err := h.referrals.Overview(c.UserContext(), auth.AccountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(overview)
}

// GetQRCode godoc
// @Summary Referral share QR code
// @Tags Referrals
// @Produce png
// @Security BearerAuth
// @Success 200 {file} file
// @Router /referrals/me/qr [get]
func (h *ReferralHandler) GetQRCode(c *fiber.Ctx) error {
	png, err := h.referrals.ShareQR(c.UserContext(), auth.AccountID(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// ApplyCode godoc
// @Summary Use a referral code
// @Description Links the caller to the referrer. Rewards are paid when the caller buys a plan.
// @Tags Referrals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ApplyCodeRequest true "Referral code"
// @Success 201 {object} models.Referral
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /referrals/apply [post]
func (h *ReferralHandler) ApplyCode(c *fiber.Ctx) error {
	var req ApplyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if req.Code == "" {
		return badRequest(c, "code is required")
	}

	referral, err := h.referrals.ApplyCode(c.UserContext(), auth.AccountID(c), req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(referral)
}
