package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/presupuestalo/marketplace-be/internal/core/auth"
)

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Health       *HealthHandler
	Account      *AccountHandler
	Lead         *LeadHandler
	Referral     *ReferralHandler
	Billing      *BillingHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
}

// RegisterRoutes mounts the public, authenticated and admin routes
func RegisterRoutes(app fiber.Router, h *Handlers, jwtService *auth.JWTService) {
	// Public
	app.Get("/health", h.Health.GetHealth)
	app.Post("/webhooks/stripe", h.Billing.StripeWebhook)

	api := app.Group("", auth.AuthMiddleware(jwtService))

	// Profile & credits
	api.Get("/profile", h.Account.GetProfile)
	api.Put("/profile/company-name", h.Account.SetCompanyName)
	api.Get("/credits/balance", h.Account.GetBalance)
	api.Get("/credits/transactions", h.Account.ListTransactions)
	api.Get("/credits/statement", h.Account.DownloadStatement)

	// Leads
	api.Get("/leads", h.Lead.ListLeads)
	api.Post("/leads/:id/access", h.Lead.AccessLead)
	api.Get("/interactions", h.Lead.ListInteractions)
	api.Get("/interactions/summary", h.Lead.GetSummary)
	api.Patch("/interactions/:id/status", h.Lead.UpdateStatus)
	api.Post("/interactions/:id/claim", h.Lead.ClaimLead)

	// Referrals
	api.Get("/referrals/me", h.Referral.GetOverview)
	api.Get("/referrals/me/qr", h.Referral.GetQRCode)
	api.Post("/referrals/apply", h.Referral.ApplyCode)

	// Billing
	api.Post("/billing/checkout", h.Billing.CreateCheckout)
	api.Post("/billing/portal", h.Billing.CreatePortal)
	api.Get("/billing/subscription", h.Billing.GetSubscription)

	// Notifications
	api.Get("/notifications", h.Notification.ListNotifications)
	api.Post("/notifications/:id/read", h.Notification.MarkRead)

	// Admin
	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.Get("/claims", h.Admin.ListClaims)
	admin.Post("/claims/:id/review", h.Admin.ReviewClaim)
	admin.Post("/referrals/:referredId/phone-verified", h.Admin.MarkPhoneVerified)
	admin.Get("/audit-logs", h.Admin.ListAuditLogs)
}
