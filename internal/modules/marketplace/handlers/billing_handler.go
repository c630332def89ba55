package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/presupuestalo/marketplace-be/internal/core/auth"
	"github.com/presupuestalo/marketplace-be/internal/core/payment"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/services"
	"github.com/rs/zerolog/log"
)

type BillingHandler struct {
	subscriptions *services.SubscriptionService
	webhooks      *services.WebhookService
}

func NewBillingHandler(subscriptions *services.SubscriptionService, webhooks *services.WebhookService) *BillingHandler {
	return &BillingHandler{subscriptions: subscriptions, webhooks: webhooks}
}

// CheckoutRequest is the body of POST /billing/checkout
type CheckoutRequest struct {
	Plan     string `json:"plan"`
	Interval string `json:"interval"`
}

// CreateCheckout godoc
// @Summary Start a plan checkout
// @Description Returns the hosted Stripe Checkout URL for a basic or pro plan
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CheckoutRequest true "Plan and interval (month or year)"
// @Success 200 {object} payment.CheckoutResult
// @Failure 400 {object} map[string]interface{}
// @Router /billing/checkout [post]
func (h *BillingHandler) CreateCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	res, err := h.subscriptions.CreateCheckoutSession(c.UserContext(), auth.AccountID(c), req.Plan, req.Interval)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// CreatePortal godoc
// @Summary Open the billing portal
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /billing/portal [post]
func (h *BillingHandler) CreatePortal(c *fiber.Ctx) error {
	url, err := h.subscriptions.CreatePortalSession(c.UserContext(), auth.AccountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// GetSubscription godoc
// @Summary Current plan assignment
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /billing/subscription [get]
func (h *BillingHandler) GetSubscription(c *fiber.Ctx) error {
	sub, err := h.subscriptions.GetSubscription(c.UserContext(), auth.AccountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// StripeWebhook godoc
// @Summary Stripe webhook
// @Description Verifies the Stripe-Signature header and applies billing events exactly once
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} services.WebhookResult
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{} "no account matches the event"
// @Failure 500 {object} map[string]interface{}
// @Router /webhooks/stripe [post]
func (h *BillingHandler) StripeWebhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing Stripe-Signature header",
			"code":  "invalid_signature",
		})
	}

	res, err := h.webhooks.HandleStripe(c.UserContext(), c.Body(), signature)
	switch {
	case err == nil:
		return c.JSON(res)
	case errors.Is(err, payment.ErrInvalidSignature), errors.Is(err, services.ErrAccountNotResolved):
		log.Warn().Err(err).Msg("⚠️ Rejected Stripe webhook")
		return respondError(c, err)
	default:
		// non-2xx makes Stripe redeliver; the transaction was rolled back
		log.Error().Err(err).Msg("❌ Stripe webhook processing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "webhook processing failed",
			"code":  "webhook_failed",
		})
	}
}
